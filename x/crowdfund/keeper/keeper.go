package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// Store key prefixes
var (
	PoolKeyPrefix          = []byte{0x01}
	PoolCounterKey         = []byte{0x02}
	MetricsKeyPrefix       = []byte{0x03}
	ContributionKeyPrefix  = []byte{0x04}
	ContributorKeyPrefix   = []byte{0x05}
	PlatformFeeKey         = []byte{0x06}
	AssetDiscountKeyPrefix = []byte{0x07}
	PlatformFeesKey        = []byte{0x08}
	ApprovalKeyPrefix      = []byte{0x09}
)

// BankKeeper defines the expected interface for the bank module. Transfers
// are atomic: either the full amount moves or the call errors.
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the crowdfund module state
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string

	deadlines *deadlineIndex
}

// NewKeeper creates a new crowdfund keeper. The authority is the platform
// admin for fee configuration; per-pool signer sets are independent of it.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		authority:  authority,
		logger:     logger.With("module", "x/"+types.ModuleName),
		deadlines:  newDeadlineIndex(),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the platform admin address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// requireAdmin checks that caller is the configured platform admin.
func (k *Keeper) requireAdmin(caller string) error {
	if k.authority == "" {
		return types.ErrNotInitialized
	}
	if caller != k.authority {
		return types.ErrUnauthorized.Wrap("caller is not the platform admin")
	}
	return nil
}

// ============ Pool Operations ============

func poolKey(poolID uint64) []byte {
	return append(PoolKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
}

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(pool)
	store.Set(poolKey(pool.ID), bz)
	if pool.Status == types.PoolStatusActive {
		k.deadlines.insert(pool.ID, pool.Metadata.Deadline)
	} else {
		k.deadlines.remove(pool.ID, pool.Metadata.Deadline)
	}
}

// GetPool retrieves a pool from the store
func (k *Keeper) GetPool(ctx sdk.Context, poolID uint64) *types.Pool {
	store := k.GetStore(ctx)
	bz := store.Get(poolKey(poolID))
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

// GetAllPools returns all pools in id order
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// NextPoolID increments and returns the monotonic pool id counter. Ids are
// never reused, even after a pool is closed.
func (k *Keeper) NextPoolID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	next := uint64(1)
	if bz := store.Get(PoolCounterKey); bz != nil {
		next = sdk.BigEndianToUint64(bz) + 1
	}
	store.Set(PoolCounterKey, sdk.Uint64ToBigEndian(next))
	return next
}

// ============ Metrics Operations ============

func metricsKey(poolID uint64) []byte {
	return append(MetricsKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
}

// SetPoolMetrics saves pool metrics to the store
func (k *Keeper) SetPoolMetrics(ctx sdk.Context, metrics *types.PoolMetrics) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(metrics)
	store.Set(metricsKey(metrics.PoolID), bz)
}

// GetPoolMetrics retrieves pool metrics, defaulting to the zero state for
// pools that have not received a contribution yet.
func (k *Keeper) GetPoolMetrics(ctx sdk.Context, poolID uint64) *types.PoolMetrics {
	store := k.GetStore(ctx)
	bz := store.Get(metricsKey(poolID))
	if bz == nil {
		return types.NewPoolMetrics(poolID)
	}
	var metrics types.PoolMetrics
	if err := json.Unmarshal(bz, &metrics); err != nil {
		return types.NewPoolMetrics(poolID)
	}
	return &metrics
}

// ============ Contribution Operations ============

func contributionKey(poolID uint64, contributor, asset string) []byte {
	key := append(ContributionKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
	return append(key, []byte(contributor+":"+asset)...)
}

func contributorKey(poolID uint64, contributor string) []byte {
	key := append(ContributorKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
	return append(key, []byte(contributor)...)
}

// SetContribution saves a contribution record to the store
func (k *Keeper) SetContribution(ctx sdk.Context, contribution *types.PoolContribution) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(contribution)
	store.Set(contributionKey(contribution.PoolID, contribution.Contributor, contribution.Asset), bz)
}

// GetContribution retrieves a per-(pool, contributor, asset) contribution,
// defaulting to the zero record.
func (k *Keeper) GetContribution(ctx sdk.Context, poolID uint64, contributor, asset string) *types.PoolContribution {
	store := k.GetStore(ctx)
	bz := store.Get(contributionKey(poolID, contributor, asset))
	if bz == nil {
		return types.NewPoolContribution(poolID, contributor, asset)
	}
	var contribution types.PoolContribution
	if err := json.Unmarshal(bz, &contribution); err != nil {
		return types.NewPoolContribution(poolID, contributor, asset)
	}
	return &contribution
}

// GetPoolContributions returns all contribution records for a pool
func (k *Keeper) GetPoolContributions(ctx sdk.Context, poolID uint64) []*types.PoolContribution {
	store := k.GetStore(ctx)
	prefix := append(ContributionKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var contributions []*types.PoolContribution
	for ; iterator.Valid(); iterator.Next() {
		var contribution types.PoolContribution
		if err := json.Unmarshal(iterator.Value(), &contribution); err != nil {
			continue
		}
		contributions = append(contributions, &contribution)
	}
	return contributions
}

// HasContributed reports whether the contributor already appears in the pool,
// in any asset.
func (k *Keeper) HasContributed(ctx sdk.Context, poolID uint64, contributor string) bool {
	return k.GetStore(ctx).Has(contributorKey(poolID, contributor))
}

// MarkContributed records the contributor's first appearance in the pool
func (k *Keeper) MarkContributed(ctx sdk.Context, poolID uint64, contributor string) {
	k.GetStore(ctx).Set(contributorKey(poolID, contributor), []byte{1})
}

// ============ Platform Fee Accumulator ============

// GetPlatformFees returns the running total of all fees ever collected
func (k *Keeper) GetPlatformFees(ctx sdk.Context) math.Int {
	store := k.GetStore(ctx)
	bz := store.Get(PlatformFeesKey)
	if bz == nil {
		return math.ZeroInt()
	}
	var total math.Int
	if err := total.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return total
}

// AddPlatformFees accumulates a collected fee. The total is monotonically
// non-decreasing; there is no reset path.
func (k *Keeper) AddPlatformFees(ctx sdk.Context, fee math.Int) {
	if !fee.IsPositive() {
		return
	}
	total := k.GetPlatformFees(ctx).Add(fee)
	bz, _ := total.Marshal()
	k.GetStore(ctx).Set(PlatformFeesKey, bz)
}

// ============ Close Approval Operations ============

func approvalKey(poolID uint64) []byte {
	return append(ApprovalKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
}

// SetCloseApprovals saves the accumulated close approvals for a pool
func (k *Keeper) SetCloseApprovals(ctx sdk.Context, approvals *types.CloseApprovals) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(approvals)
	store.Set(approvalKey(approvals.PoolID), bz)
}

// GetCloseApprovals retrieves the accumulated approvals, defaulting to empty
func (k *Keeper) GetCloseApprovals(ctx sdk.Context, poolID uint64) *types.CloseApprovals {
	store := k.GetStore(ctx)
	bz := store.Get(approvalKey(poolID))
	if bz == nil {
		return &types.CloseApprovals{PoolID: poolID}
	}
	var approvals types.CloseApprovals
	if err := json.Unmarshal(bz, &approvals); err != nil {
		return &types.CloseApprovals{PoolID: poolID}
	}
	return &approvals
}

// DeleteCloseApprovals removes the approval record once the pool is closed
func (k *Keeper) DeleteCloseApprovals(ctx sdk.Context, poolID uint64) {
	k.GetStore(ctx).Delete(approvalKey(poolID))
}
