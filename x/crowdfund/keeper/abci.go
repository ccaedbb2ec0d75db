package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// EndBlocker sweeps past-deadline Active pools so the Expired transition is
// observed even without client traffic. The sweep is an optimization over the
// lazy per-call derivation, not a replacement for it.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	k.seedDeadlines(ctx)

	now := ctx.BlockTime().Unix()
	for _, entry := range k.deadlines.dueBefore(now) {
		pool := k.GetPool(ctx, entry.poolID)
		if pool == nil || pool.Status != types.PoolStatusActive {
			k.deadlines.remove(entry.poolID, entry.deadline)
			continue
		}
		metrics := k.GetPoolMetrics(ctx, entry.poolID)
		k.ObserveStatus(ctx, pool, metrics.TotalRaised)
	}
	return nil
}

// seedDeadlines rebuilds the in-memory deadline index from the store on the
// first block after a restart.
func (k *Keeper) seedDeadlines(ctx sdk.Context) {
	k.deadlines.mu.Lock()
	seeded := k.deadlines.seeded
	k.deadlines.seeded = true
	k.deadlines.mu.Unlock()
	if seeded {
		return
	}

	for _, pool := range k.GetAllPools(ctx) {
		if pool.Status == types.PoolStatusActive {
			k.deadlines.insert(pool.ID, pool.Metadata.Deadline)
		}
	}
}
