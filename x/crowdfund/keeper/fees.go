package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

func assetDiscountKey(asset string) []byte {
	return append(AssetDiscountKeyPrefix, []byte(asset)...)
}

// SetPlatformFee persists the platform-wide base fee rate. Admin only.
func (k *Keeper) SetPlatformFee(ctx sdk.Context, caller string, feeBps int64) error {
	if err := k.requireAdmin(caller); err != nil {
		return err
	}
	if !types.ValidBps(feeBps) {
		return types.ErrInvalidFee.Wrapf("fee %d bps", feeBps)
	}

	store := k.GetStore(ctx)
	store.Set(PlatformFeeKey, sdk.Uint64ToBigEndian(uint64(feeBps)))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetPlatformFee,
			sdk.NewAttribute(types.AttributeKeyAdmin, caller),
			sdk.NewAttribute(types.AttributeKeyFeeBps, strconv.FormatInt(feeBps, 10)),
		),
	)

	k.logger.Info("Platform fee updated", "fee_bps", feeBps)
	return nil
}

// GetPlatformFee returns the persisted base fee rate, or 0 when unset.
// Read-only, no authorization.
func (k *Keeper) GetPlatformFee(ctx sdk.Context) int64 {
	bz := k.GetStore(ctx).Get(PlatformFeeKey)
	if bz == nil {
		return 0
	}
	return int64(sdk.BigEndianToUint64(bz))
}

// SetAssetDiscount persists a per-asset fee discount. Admin only.
func (k *Keeper) SetAssetDiscount(ctx sdk.Context, caller, asset string, discountBps int64) error {
	if err := k.requireAdmin(caller); err != nil {
		return err
	}
	if !types.ValidBps(discountBps) {
		return types.ErrInvalidFee.Wrapf("discount %d bps", discountBps)
	}

	store := k.GetStore(ctx)
	store.Set(assetDiscountKey(asset), sdk.Uint64ToBigEndian(uint64(discountBps)))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSetAssetDiscount,
			sdk.NewAttribute(types.AttributeKeyAdmin, caller),
			sdk.NewAttribute(types.AttributeKeyAsset, asset),
			sdk.NewAttribute(types.AttributeKeyDiscountBps, strconv.FormatInt(discountBps, 10)),
		),
	)

	k.logger.Info("Asset discount updated", "asset", asset, "discount_bps", discountBps)
	return nil
}

// GetAssetDiscount returns the discount for an asset, or 0 when absent.
// Read-only, no authorization.
func (k *Keeper) GetAssetDiscount(ctx sdk.Context, asset string) int64 {
	bz := k.GetStore(ctx).Get(assetDiscountKey(asset))
	if bz == nil {
		return 0
	}
	return int64(sdk.BigEndianToUint64(bz))
}

// EffectiveFeeBps resolves the fee rate a contribution in the given asset
// pays after the asset's discount is applied.
func (k *Keeper) EffectiveFeeBps(ctx sdk.Context, asset string) int64 {
	return types.EffectiveFeeBps(k.GetPlatformFee(ctx), k.GetAssetDiscount(ctx, asset))
}
