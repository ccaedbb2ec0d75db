package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// Contribute moves the gross amount into module custody, splits off the
// platform fee, credits the net amount to the pool's ledger, and re-derives
// the pool status. Ordering matters: all validation runs before the bank
// transfer, and no module state is written if the transfer fails.
func (k *Keeper) Contribute(
	ctx context.Context,
	contributor string,
	poolID uint64,
	asset string,
	amount math.Int,
	isPrivate bool,
) (fee, net math.Int, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if amount.IsNil() || !amount.IsPositive() {
		return fee, net, types.ErrInvalidAmount.Wrapf("amount %s", amount)
	}

	pool := k.GetPool(sdkCtx, poolID)
	if pool == nil {
		return fee, net, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}

	metrics := k.GetPoolMetrics(sdkCtx, poolID)
	if status := k.ObserveStatus(sdkCtx, pool, metrics.TotalRaised); status != types.PoolStatusActive {
		return fee, net, types.ErrPoolNotActive.Wrapf("pool %d is %s", poolID, status)
	}

	effectiveBps := k.EffectiveFeeBps(sdkCtx, asset)
	fee, net = types.SplitFee(amount, effectiveBps)

	contributorAddr, err := sdk.AccAddressFromBech32(contributor)
	if err != nil {
		return fee, net, err
	}

	// Gross amount into module custody. Atomic: a failed transfer aborts the
	// whole call before any ledger mutation.
	gross := sdk.NewCoins(sdk.NewCoin(asset, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, contributorAddr, types.ModuleName, gross); err != nil {
		return fee, net, err
	}

	now := sdkCtx.BlockTime().Unix()

	k.AddPlatformFees(sdkCtx, fee)

	metrics.TotalRaised = metrics.TotalRaised.Add(net)
	metrics.LastDonationAt = now
	if !k.HasContributed(sdkCtx, poolID, contributor) {
		metrics.ContributorCount++
		k.MarkContributed(sdkCtx, poolID, contributor)
	}
	k.SetPoolMetrics(sdkCtx, metrics)

	contribution := k.GetContribution(sdkCtx, poolID, contributor, asset)
	contribution.Amount = contribution.Amount.Add(net)
	k.SetContribution(sdkCtx, contribution)

	k.ObserveStatus(sdkCtx, pool, metrics.TotalRaised)

	// External observers see the net amount, i.e. exactly what the pool was
	// credited with.
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeContribute,
			sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute(types.AttributeKeyContributor, contributor),
			sdk.NewAttribute(types.AttributeKeyAsset, asset),
			sdk.NewAttribute(types.AttributeKeyNetAmount, net.String()),
			sdk.NewAttribute(types.AttributeKeyFeeAmount, fee.String()),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatInt(now, 10)),
			sdk.NewAttribute(types.AttributeKeyIsPrivate, strconv.FormatBool(isPrivate)),
		),
	)

	k.logger.Info("Contribution processed",
		"pool_id", poolID,
		"contributor", contributor,
		"asset", asset,
		"net", net.String(),
		"fee", fee.String(),
	)

	return fee, net, nil
}
