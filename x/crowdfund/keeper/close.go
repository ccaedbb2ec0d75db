package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// ApproveClose records a signer's approval for closing the pool. Approvals
// accumulate across calls; the threshold is checked by ClosePool.
func (k *Keeper) ApproveClose(ctx context.Context, signer string, poolID uint64) (*types.CloseApprovals, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	pool := k.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if pool.Status == types.PoolStatusClosed {
		return nil, types.ErrPoolNotClosable.Wrapf("pool %d already closed", poolID)
	}
	if !pool.IsSigner(signer) {
		return nil, types.ErrUnauthorized.Wrapf("%s is not a signer of pool %d", signer, poolID)
	}

	approvals := k.GetCloseApprovals(sdkCtx, poolID)
	if approvals.Has(signer) {
		return nil, types.ErrAlreadyApproved.Wrapf("signer %s", signer)
	}
	approvals.Add(signer)
	k.SetCloseApprovals(sdkCtx, approvals)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeApproveClose,
			sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute(types.AttributeKeySigner, signer),
			sdk.NewAttribute(types.AttributeKeyApprovals, strconv.Itoa(len(approvals.Signers))),
		),
	)

	k.logger.Info("Close approval recorded",
		"pool_id", poolID,
		"signer", signer,
		"approvals", len(approvals.Signers),
		"required", pool.RequiredSignatures,
	)

	return approvals, nil
}

// ClosePool verifies the release policy and, once at least the required
// number of distinct signers have approved (the caller counts as one),
// releases custody funds to the pool creator and transitions the pool to
// Closed. Only Funded and Expired pools can close; Active never closes
// directly.
func (k *Keeper) ClosePool(ctx context.Context, caller string, poolID uint64) (sdk.Coins, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	pool := k.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}

	metrics := k.GetPoolMetrics(sdkCtx, poolID)
	status := k.ObserveStatus(sdkCtx, pool, metrics.TotalRaised)
	if status != types.PoolStatusFunded && status != types.PoolStatusExpired {
		return nil, types.ErrPoolNotClosable.Wrapf("pool %d is %s", poolID, status)
	}

	if !pool.IsSigner(caller) {
		return nil, types.ErrUnauthorized.Wrapf("%s is not a signer of pool %d", caller, poolID)
	}
	approvals := k.GetCloseApprovals(sdkCtx, poolID)
	if approved := approvals.CountWith(caller); approved < int(pool.RequiredSignatures) {
		return nil, types.ErrUnauthorized.Wrapf(
			"%d of %d required approvals", approved, pool.RequiredSignatures)
	}

	// Custody release is the per-asset net sums; fees were separated at
	// contribution time and stay with the platform accumulator.
	release := sdk.NewCoins()
	for _, contribution := range k.GetPoolContributions(sdkCtx, poolID) {
		if contribution.Amount.IsPositive() {
			release = release.Add(sdk.NewCoin(contribution.Asset, contribution.Amount))
		}
	}

	creatorAddr, err := sdk.AccAddressFromBech32(pool.Metadata.Creator)
	if err != nil {
		return nil, err
	}
	if !release.IsZero() {
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, creatorAddr, release); err != nil {
			return nil, err
		}
	}

	now := sdkCtx.BlockTime().Unix()
	pool.ClosedAt = now
	k.transitionStatus(sdkCtx, pool, types.PoolStatusClosed)
	k.DeleteCloseApprovals(sdkCtx, poolID)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeClosePool,
			sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute(types.AttributeKeyRecipient, pool.Metadata.Creator),
			sdk.NewAttribute(types.AttributeKeyAmount, release.String()),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(now, 10)),
		),
	)

	k.logger.Info("Pool closed",
		"pool_id", poolID,
		"recipient", pool.Metadata.Creator,
		"released", release.String(),
	)

	return release, nil
}
