package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// PoolInfo aggregates a pool with its metrics for query responses. Status is
// the derived status at query time; queries cannot write, so a pending lazy
// Expired transition shows up here before it is persisted.
type PoolInfo struct {
	Pool      *types.Pool        `json:"pool"`
	Metrics   *types.PoolMetrics `json:"metrics"`
	Status    string             `json:"status"`
	Approvals int                `json:"approvals"`
}

// QueryPool returns a single pool with derived status
func (k *Keeper) QueryPool(ctx sdk.Context, poolID uint64) (*PoolInfo, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	return k.poolInfo(ctx, pool), nil
}

// QueryPools returns all pools with derived statuses
func (k *Keeper) QueryPools(ctx sdk.Context) []*PoolInfo {
	pools := k.GetAllPools(ctx)
	infos := make([]*PoolInfo, 0, len(pools))
	for _, pool := range pools {
		infos = append(infos, k.poolInfo(ctx, pool))
	}
	return infos
}

func (k *Keeper) poolInfo(ctx sdk.Context, pool *types.Pool) *PoolInfo {
	metrics := k.GetPoolMetrics(ctx, pool.ID)
	return &PoolInfo{
		Pool:      pool,
		Metrics:   metrics,
		Status:    pool.DeriveStatus(metrics.TotalRaised, ctx.BlockTime().Unix()),
		Approvals: len(k.GetCloseApprovals(ctx, pool.ID).Signers),
	}
}

// QueryContribution returns a contributor's cumulative net amount for a pool
// and asset, zero if they never contributed.
func (k *Keeper) QueryContribution(ctx sdk.Context, poolID uint64, contributor, asset string) *types.PoolContribution {
	return k.GetContribution(ctx, poolID, contributor, asset)
}

// FeeConfig is the platform fee view: the base rate, the per-asset discount
// and effective rate when an asset is given, and the accumulated fee total.
type FeeConfig struct {
	PlatformFeeBps  int64  `json:"platform_fee_bps"`
	AssetDiscount   int64  `json:"asset_discount_bps,omitempty"`
	EffectiveFeeBps int64  `json:"effective_fee_bps"`
	PlatformFees    string `json:"platform_fees"`
}

// QueryFeeConfig returns the current fee configuration. An empty asset
// reports the undiscounted base rate.
func (k *Keeper) QueryFeeConfig(ctx sdk.Context, asset string) *FeeConfig {
	base := k.GetPlatformFee(ctx)
	cfg := &FeeConfig{
		PlatformFeeBps:  base,
		EffectiveFeeBps: base,
		PlatformFees:    k.GetPlatformFees(ctx).String(),
	}
	if asset != "" {
		cfg.AssetDiscount = k.GetAssetDiscount(ctx, asset)
		cfg.EffectiveFeeBps = k.EffectiveFeeBps(ctx, asset)
	}
	return cfg
}
