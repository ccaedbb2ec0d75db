package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// MsgServer defines the crowdfund MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// CreatePool handles MsgCreatePool
func (m *MsgServer) CreatePool(ctx context.Context, msg *types.MsgCreatePool) (*types.MsgCreatePoolResponse, error) {
	target, ok := math.NewIntFromString(msg.TargetAmount)
	if !ok {
		return nil, types.ErrInvalidTarget.Wrapf("target %q", msg.TargetAmount)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.CreatePool(sdkCtx, msg.Creator, types.PoolMetadata{
		Name:         msg.Name,
		Description:  msg.Description,
		ExternalURL:  msg.ExternalURL,
		ImageHash:    msg.ImageHash,
		TargetAmount: target,
		Deadline:     msg.Deadline,
	}, msg.RequiredSignatures, msg.Signers)
	if err != nil {
		return nil, err
	}

	return &types.MsgCreatePoolResponse{PoolID: pool.ID}, nil
}

// Contribute handles MsgContribute
func (m *MsgServer) Contribute(ctx context.Context, msg *types.MsgContribute) (*types.MsgContributeResponse, error) {
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, types.ErrInvalidAmount.Wrapf("amount %q", msg.Amount)
	}

	fee, net, err := m.keeper.Contribute(ctx, msg.Contributor, msg.PoolID, msg.Asset, amount, msg.IsPrivate)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := m.keeper.GetPool(sdkCtx, msg.PoolID)
	status := ""
	if pool != nil {
		status = pool.Status
	}

	return &types.MsgContributeResponse{
		NetAmount:  net.String(),
		FeeAmount:  fee.String(),
		PoolStatus: status,
	}, nil
}

// SetPlatformFee handles MsgSetPlatformFee
func (m *MsgServer) SetPlatformFee(ctx context.Context, msg *types.MsgSetPlatformFee) (*types.MsgSetPlatformFeeResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetPlatformFee(sdkCtx, msg.Authority, msg.FeeBps); err != nil {
		return nil, err
	}
	return &types.MsgSetPlatformFeeResponse{}, nil
}

// SetAssetDiscount handles MsgSetAssetDiscount
func (m *MsgServer) SetAssetDiscount(ctx context.Context, msg *types.MsgSetAssetDiscount) (*types.MsgSetAssetDiscountResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.SetAssetDiscount(sdkCtx, msg.Authority, msg.Asset, msg.DiscountBps); err != nil {
		return nil, err
	}
	return &types.MsgSetAssetDiscountResponse{}, nil
}

// ApproveClose handles MsgApproveClose
func (m *MsgServer) ApproveClose(ctx context.Context, msg *types.MsgApproveClose) (*types.MsgApproveCloseResponse, error) {
	approvals, err := m.keeper.ApproveClose(ctx, msg.Signer, msg.PoolID)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := m.keeper.GetPool(sdkCtx, msg.PoolID)
	required := uint32(1)
	if pool != nil {
		required = pool.RequiredSignatures
	}

	return &types.MsgApproveCloseResponse{
		Approvals: uint32(len(approvals.Signers)),
		Required:  required,
	}, nil
}

// ClosePool handles MsgClosePool
func (m *MsgServer) ClosePool(ctx context.Context, msg *types.MsgClosePool) (*types.MsgClosePoolResponse, error) {
	released, err := m.keeper.ClosePool(ctx, msg.Signer, msg.PoolID)
	if err != nil {
		return nil, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	recipient := ""
	if pool := m.keeper.GetPool(sdkCtx, msg.PoolID); pool != nil {
		recipient = pool.Metadata.Creator
	}

	return &types.MsgClosePoolResponse{
		AmountReleased: released.String(),
		Recipient:      recipient,
	}, nil
}
