package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// CreatePool validates and persists a new Active pool and returns its id.
// The release policy (single admin or N-of-M signer set) is fixed here and
// immutable afterwards.
func (k *Keeper) CreatePool(
	ctx sdk.Context,
	creator string,
	metadata types.PoolMetadata,
	requiredSigs uint32,
	signers []string,
) (*types.Pool, error) {
	if metadata.Name == "" {
		return nil, types.ErrInvalidPoolName
	}
	if metadata.TargetAmount.IsNil() || !metadata.TargetAmount.IsPositive() {
		return nil, types.ErrInvalidTarget
	}
	now := ctx.BlockTime().Unix()
	if metadata.Deadline <= now {
		return nil, types.ErrInvalidDeadline.Wrapf("deadline %d is not after %d", metadata.Deadline, now)
	}
	if _, err := sdk.AccAddressFromBech32(creator); err != nil {
		return nil, err
	}
	metadata.Creator = creator

	if requiredSigs == 0 {
		requiredSigs = 1
	}
	if len(signers) == 0 {
		if k.authority == "" {
			return nil, types.ErrNotInitialized
		}
		signers = []string{k.authority}
	}
	if int(requiredSigs) > len(signers) {
		return nil, types.ErrInvalidSigners.Wrapf("threshold %d exceeds %d signers", requiredSigs, len(signers))
	}
	seen := make(map[string]bool, len(signers))
	for _, signer := range signers {
		if _, err := sdk.AccAddressFromBech32(signer); err != nil {
			return nil, types.ErrInvalidSigners.Wrapf("signer %s: %v", signer, err)
		}
		if seen[signer] {
			return nil, types.ErrInvalidSigners.Wrapf("duplicate signer %s", signer)
		}
		seen[signer] = true
	}

	pool := types.NewPool(k.NextPoolID(ctx), metadata, requiredSigs, signers, now)
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreatePool,
			sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(pool.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyCreator, creator),
			sdk.NewAttribute(types.AttributeKeyName, metadata.Name),
			sdk.NewAttribute(types.AttributeKeyAmount, metadata.TargetAmount.String()),
			sdk.NewAttribute(types.AttributeKeyDeadline, strconv.FormatInt(metadata.Deadline, 10)),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(now, 10)),
		),
	)

	k.logger.Info("Pool created",
		"pool_id", pool.ID,
		"creator", creator,
		"target", metadata.TargetAmount.String(),
		"deadline", metadata.Deadline,
	)

	return pool, nil
}

// ObserveStatus derives the pool's current status and persists the lazy
// Active -> Expired and Active -> Funded transitions the first time they are
// observed. Terminal states are never re-evaluated.
func (k *Keeper) ObserveStatus(ctx sdk.Context, pool *types.Pool, totalRaised math.Int) string {
	derived := pool.DeriveStatus(totalRaised, ctx.BlockTime().Unix())
	if derived != pool.Status {
		k.transitionStatus(ctx, pool, derived)
	}
	return derived
}

// transitionStatus persists a status change and announces it.
func (k *Keeper) transitionStatus(ctx sdk.Context, pool *types.Pool, status string) {
	pool.Status = status
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolStatus,
			sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(pool.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyStatus, status),
		),
	)

	k.logger.Info("Pool status changed", "pool_id", pool.ID, "status", status)
}
