package keeper

import (
	"sync"

	"github.com/google/btree"
)

// deadlineEntry orders Active pools by deadline so the end-of-block sweep
// only touches pools that can actually expire.
type deadlineEntry struct {
	deadline int64
	poolID   uint64
}

func deadlineLess(a, b deadlineEntry) bool {
	if a.deadline != b.deadline {
		return a.deadline < b.deadline
	}
	return a.poolID < b.poolID
}

// deadlineIndex is an in-memory btree over (deadline, pool id). It is purely
// an observation aid: DeriveStatus stays the source of truth, and the index
// is reseeded from the store after a restart.
type deadlineIndex struct {
	mu     sync.Mutex
	tree   *btree.BTreeG[deadlineEntry]
	seeded bool
}

func newDeadlineIndex() *deadlineIndex {
	return &deadlineIndex{
		tree: btree.NewG(8, deadlineLess),
	}
}

func (idx *deadlineIndex) insert(poolID uint64, deadline int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.ReplaceOrInsert(deadlineEntry{deadline: deadline, poolID: poolID})
}

func (idx *deadlineIndex) remove(poolID uint64, deadline int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Delete(deadlineEntry{deadline: deadline, poolID: poolID})
}

// dueBefore returns the entries whose deadline has passed at the given time,
// in deadline order.
func (idx *deadlineIndex) dueBefore(now int64) []deadlineEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var due []deadlineEntry
	idx.tree.Ascend(func(entry deadlineEntry) bool {
		if entry.deadline >= now {
			return false
		}
		due = append(due, entry)
		return true
	})
	return due
}
