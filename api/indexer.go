package api

import (
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/huandu/skiplist"

	"github.com/openalpha/crowdchain/api/types"
)

// anonymousContributor is the leaderboard bucket for private donations
const anonymousContributor = "anonymous"

// contributionFeedSize bounds the per-pool recent contribution ring
const contributionFeedSize = 100

// boardKey orders leaderboard rows by raised amount, largest first, with the
// contributor address as a deterministic tiebreak.
type boardKey struct {
	amount      *big.Int
	contributor string
}

type boardKeyDesc struct{}

func (boardKeyDesc) Compare(lhs, rhs interface{}) int {
	l := lhs.(boardKey)
	r := rhs.(boardKey)
	if c := l.amount.Cmp(r.amount); c != 0 {
		return -c
	}
	if l.contributor < r.contributor {
		return -1
	}
	if l.contributor > r.contributor {
		return 1
	}
	return 0
}

func (boardKeyDesc) CalcScore(key interface{}) float64 {
	f, _ := new(big.Float).SetInt(key.(boardKey).amount).Float64()
	return -f
}

// poolState is the indexer's per-pool projection
type poolState struct {
	summary types.PoolSummary

	totalRaised *big.Int
	assets      map[string]bool

	// contributor -> cumulative net amount, mirrored into the board
	contributors map[string]*big.Int
	board        *skiplist.SkipList

	// most recent contributions, newest first
	feed []types.ContributionEvent
}

// Indexer projects crowdfund chain events into queryable read models. All
// amounts are big integers in the chain's base units; the indexer never does
// fee math of its own, it only aggregates what the chain reported.
type Indexer struct {
	mu          sync.RWMutex
	pools       map[uint64]*poolState
	blockHeight int64
}

// NewIndexer creates an empty indexer
func NewIndexer() *Indexer {
	return &Indexer{
		pools: make(map[uint64]*poolState),
	}
}

// ApplyPoolCreated records a new pool
func (ix *Indexer) ApplyPoolCreated(poolID uint64, name, creator, target string, deadline, createdAt int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.pools[poolID]; ok {
		return
	}
	ix.pools[poolID] = &poolState{
		summary: types.PoolSummary{
			PoolID:       poolID,
			Name:         name,
			Creator:      creator,
			TargetAmount: target,
			Deadline:     deadline,
			Status:       "active",
			TotalRaised:  "0",
			CreatedAt:    createdAt,
		},
		totalRaised:  big.NewInt(0),
		assets:       make(map[string]bool),
		contributors: make(map[string]*big.Int),
		board:        skiplist.New(boardKeyDesc{}),
	}
}

// ApplyContribution folds a contribution event into the pool's projection
func (ix *Indexer) ApplyContribution(event types.ContributionEvent) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pool, ok := ix.pools[event.PoolID]
	if !ok {
		return
	}

	net, ok := new(big.Int).SetString(event.NetAmount, 10)
	if !ok {
		return
	}

	pool.totalRaised.Add(pool.totalRaised, net)
	pool.summary.TotalRaised = pool.totalRaised.String()
	pool.summary.LastDonationAt = event.Timestamp
	pool.assets[event.Asset] = true
	pool.summary.Assets = sortedKeys(pool.assets)

	// Private donors appear in the feed and board under one aggregate bucket
	name := event.Contributor
	if event.IsPrivate {
		name = anonymousContributor
	}

	prev, known := pool.contributors[name]
	if !known {
		prev = big.NewInt(0)
		if name != anonymousContributor {
			pool.summary.ContributorCount++
		}
	} else {
		pool.board.Remove(boardKey{amount: prev, contributor: name})
	}
	next := new(big.Int).Add(prev, net)
	pool.contributors[name] = next
	pool.board.Set(boardKey{amount: next, contributor: name}, name)

	feedEvent := event
	if event.IsPrivate {
		feedEvent.Contributor = ""
	}
	pool.feed = append([]types.ContributionEvent{feedEvent}, pool.feed...)
	if len(pool.feed) > contributionFeedSize {
		pool.feed = pool.feed[:contributionFeedSize]
	}
}

// ApplyPoolStatus records a lifecycle transition
func (ix *Indexer) ApplyPoolStatus(poolID uint64, status string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if pool, ok := ix.pools[poolID]; ok {
		pool.summary.Status = status
		if status == "closed" {
			pool.summary.ClosedAt = time.Now().Unix()
		}
	}
}

// ApplyCloseApproval records an approval count update
func (ix *Indexer) ApplyCloseApproval(poolID uint64, approvals int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if pool, ok := ix.pools[poolID]; ok {
		pool.summary.Approvals = approvals
	}
}

// SetBlockHeight records the latest observed height
func (ix *Indexer) SetBlockHeight(height int64) {
	ix.mu.Lock()
	ix.blockHeight = height
	ix.mu.Unlock()
}

// BlockHeight returns the latest observed height
func (ix *Indexer) BlockHeight() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.blockHeight
}

// PoolCount returns the number of indexed pools
func (ix *Indexer) PoolCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.pools)
}

// Pools returns all pool summaries in id order
func (ix *Indexer) Pools() []types.PoolSummary {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]types.PoolSummary, 0, len(ix.pools))
	for _, pool := range ix.pools {
		out = append(out, pool.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PoolID < out[j].PoolID })
	return out
}

// Pool returns one pool summary
func (ix *Indexer) Pool(poolID uint64) (types.PoolSummary, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pool, ok := ix.pools[poolID]
	if !ok {
		return types.PoolSummary{}, false
	}
	return pool.summary, true
}

// Leaderboard returns a pool's top contributors, ranked by cumulative net
// amount. The skiplist keeps rows sorted, so this is a prefix walk.
func (ix *Indexer) Leaderboard(poolID uint64, limit int) ([]types.LeaderboardEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pool, ok := ix.pools[poolID]
	if !ok {
		return nil, false
	}
	if limit <= 0 {
		limit = 10
	}

	entries := make([]types.LeaderboardEntry, 0, limit)
	for elem := pool.board.Front(); elem != nil && len(entries) < limit; elem = elem.Next() {
		key := elem.Key().(boardKey)
		entries = append(entries, types.LeaderboardEntry{
			Rank:        len(entries) + 1,
			Contributor: key.contributor,
			Amount:      key.amount.String(),
		})
	}
	return entries, true
}

// Contributions returns a pool's recent contribution feed, newest first
func (ix *Indexer) Contributions(poolID uint64, limit int) ([]types.ContributionEvent, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pool, ok := ix.pools[poolID]
	if !ok {
		return nil, false
	}
	if limit <= 0 || limit > len(pool.feed) {
		limit = len(pool.feed)
	}
	out := make([]types.ContributionEvent, limit)
	copy(out, pool.feed[:limit])
	return out, true
}

// StatusCounts returns the number of pools per status, for metrics gauges
func (ix *Indexer) StatusCounts() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	counts := make(map[string]int, 4)
	for _, pool := range ix.pools {
		counts[pool.summary.Status]++
	}
	return counts
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
