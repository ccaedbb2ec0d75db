package api

import (
	"fmt"
	"testing"

	"github.com/openalpha/crowdchain/api/types"
)

func newTestIndexer() *Indexer {
	ix := NewIndexer()
	ix.ApplyPoolCreated(1, "Open Source Fund", "cosmos1creator", "1000000", 1_700_001_000, 1_700_000_000)
	return ix
}

func contribution(poolID uint64, contributor, net string) types.ContributionEvent {
	return types.ContributionEvent{
		PoolID:      poolID,
		Contributor: contributor,
		Asset:       "uatom",
		NetAmount:   net,
		FeeAmount:   "0",
		Timestamp:   1_700_000_100,
	}
}

func TestIndexerPoolCreated(t *testing.T) {
	ix := newTestIndexer()

	summary, ok := ix.Pool(1)
	if !ok {
		t.Fatal("expected pool 1 to exist")
	}
	if summary.Status != "active" {
		t.Errorf("status = %q, want active", summary.Status)
	}
	if summary.TotalRaised != "0" {
		t.Errorf("total raised = %q, want 0", summary.TotalRaised)
	}
	if ix.PoolCount() != 1 {
		t.Errorf("pool count = %d, want 1", ix.PoolCount())
	}

	// Replayed create events must not reset the projection
	ix.ApplyContribution(contribution(1, "cosmos1alice", "500"))
	ix.ApplyPoolCreated(1, "Open Source Fund", "cosmos1creator", "1000000", 1_700_001_000, 1_700_000_000)
	summary, _ = ix.Pool(1)
	if summary.TotalRaised != "500" {
		t.Errorf("total raised after replay = %q, want 500", summary.TotalRaised)
	}
}

func TestIndexerContributionAggregation(t *testing.T) {
	ix := newTestIndexer()

	ix.ApplyContribution(contribution(1, "cosmos1alice", "1000"))
	ix.ApplyContribution(contribution(1, "cosmos1bob", "300"))
	ix.ApplyContribution(contribution(1, "cosmos1alice", "200"))

	summary, _ := ix.Pool(1)
	if summary.TotalRaised != "1500" {
		t.Errorf("total raised = %q, want 1500", summary.TotalRaised)
	}
	if summary.ContributorCount != 2 {
		t.Errorf("contributor count = %d, want 2", summary.ContributorCount)
	}
	if len(summary.Assets) != 1 || summary.Assets[0] != "uatom" {
		t.Errorf("assets = %v, want [uatom]", summary.Assets)
	}
}

func TestIndexerLeaderboardOrdering(t *testing.T) {
	ix := newTestIndexer()

	ix.ApplyContribution(contribution(1, "cosmos1bob", "300"))
	ix.ApplyContribution(contribution(1, "cosmos1alice", "1000"))
	ix.ApplyContribution(contribution(1, "cosmos1carol", "700"))

	entries, ok := ix.Leaderboard(1, 10)
	if !ok {
		t.Fatal("expected pool 1 leaderboard")
	}
	want := []struct {
		contributor string
		amount      string
	}{
		{"cosmos1alice", "1000"},
		{"cosmos1carol", "700"},
		{"cosmos1bob", "300"},
	}
	if len(entries) != len(want) {
		t.Fatalf("leaderboard size = %d, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Contributor != w.contributor || entries[i].Amount != w.amount {
			t.Errorf("rank %d = %s/%s, want %s/%s",
				i+1, entries[i].Contributor, entries[i].Amount, w.contributor, w.amount)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank field = %d, want %d", entries[i].Rank, i+1)
		}
	}

	// A follow-up donation promotes bob past carol
	ix.ApplyContribution(contribution(1, "cosmos1bob", "500"))
	entries, _ = ix.Leaderboard(1, 2)
	if len(entries) != 2 {
		t.Fatalf("limited leaderboard size = %d, want 2", len(entries))
	}
	if entries[1].Contributor != "cosmos1bob" || entries[1].Amount != "800" {
		t.Errorf("rank 2 = %s/%s, want cosmos1bob/800", entries[1].Contributor, entries[1].Amount)
	}
}

func TestIndexerLeaderboardTiebreak(t *testing.T) {
	ix := newTestIndexer()

	ix.ApplyContribution(contribution(1, "cosmos1zed", "500"))
	ix.ApplyContribution(contribution(1, "cosmos1amy", "500"))

	entries, _ := ix.Leaderboard(1, 10)
	if entries[0].Contributor != "cosmos1amy" || entries[1].Contributor != "cosmos1zed" {
		t.Errorf("equal amounts should order by address: got %s, %s",
			entries[0].Contributor, entries[1].Contributor)
	}
}

func TestIndexerPrivateContributions(t *testing.T) {
	ix := newTestIndexer()

	private := contribution(1, "cosmos1secret", "900")
	private.IsPrivate = true
	ix.ApplyContribution(private)

	private2 := contribution(1, "cosmos1othersecret", "600")
	private2.IsPrivate = true
	ix.ApplyContribution(private2)

	ix.ApplyContribution(contribution(1, "cosmos1alice", "1000"))

	summary, _ := ix.Pool(1)
	if summary.TotalRaised != "2500" {
		t.Errorf("total raised = %q, want 2500", summary.TotalRaised)
	}
	// Anonymous bucket is not a distinct contributor
	if summary.ContributorCount != 1 {
		t.Errorf("contributor count = %d, want 1", summary.ContributorCount)
	}

	entries, _ := ix.Leaderboard(1, 10)
	if len(entries) != 2 {
		t.Fatalf("leaderboard size = %d, want 2", len(entries))
	}
	if entries[0].Contributor != anonymousContributor || entries[0].Amount != "1500" {
		t.Errorf("rank 1 = %s/%s, want %s/1500",
			entries[0].Contributor, entries[0].Amount, anonymousContributor)
	}

	feed, _ := ix.Contributions(1, 10)
	for _, event := range feed {
		if event.IsPrivate && event.Contributor != "" {
			t.Errorf("private feed entry leaks contributor %q", event.Contributor)
		}
	}
}

func TestIndexerContributionFeed(t *testing.T) {
	ix := newTestIndexer()

	for i := 0; i < contributionFeedSize+20; i++ {
		ix.ApplyContribution(contribution(1, fmt.Sprintf("cosmos1donor%d", i), "10"))
	}

	feed, ok := ix.Contributions(1, 0)
	if !ok {
		t.Fatal("expected pool 1 feed")
	}
	if len(feed) != contributionFeedSize {
		t.Errorf("feed size = %d, want %d", len(feed), contributionFeedSize)
	}
	// Newest first
	if feed[0].Contributor != fmt.Sprintf("cosmos1donor%d", contributionFeedSize+19) {
		t.Errorf("feed head = %q, want newest donor", feed[0].Contributor)
	}

	limited, _ := ix.Contributions(1, 5)
	if len(limited) != 5 {
		t.Errorf("limited feed size = %d, want 5", len(limited))
	}
}

func TestIndexerStatusTransitions(t *testing.T) {
	ix := newTestIndexer()
	ix.ApplyPoolCreated(2, "Second", "cosmos1creator", "500", 1_700_002_000, 1_700_000_000)

	ix.ApplyPoolStatus(1, "funded")
	ix.ApplyPoolStatus(2, "expired")

	counts := ix.StatusCounts()
	if counts["funded"] != 1 || counts["expired"] != 1 {
		t.Errorf("status counts = %v, want funded:1 expired:1", counts)
	}

	ix.ApplyPoolStatus(1, "closed")
	summary, _ := ix.Pool(1)
	if summary.Status != "closed" {
		t.Errorf("status = %q, want closed", summary.Status)
	}
	if summary.ClosedAt == 0 {
		t.Error("closed pool should record a close time")
	}
}

func TestIndexerUnknownPool(t *testing.T) {
	ix := newTestIndexer()

	// Events for pools the indexer never saw are dropped, not fabricated
	ix.ApplyContribution(contribution(99, "cosmos1alice", "100"))
	ix.ApplyPoolStatus(99, "funded")

	if _, ok := ix.Pool(99); ok {
		t.Error("pool 99 should not exist")
	}
	if _, ok := ix.Leaderboard(99, 10); ok {
		t.Error("leaderboard for missing pool should report not found")
	}
	if _, ok := ix.Contributions(99, 10); ok {
		t.Error("feed for missing pool should report not found")
	}
}

func TestIndexerPoolsOrdering(t *testing.T) {
	ix := NewIndexer()
	ix.ApplyPoolCreated(3, "c", "cosmos1x", "1", 2, 1)
	ix.ApplyPoolCreated(1, "a", "cosmos1x", "1", 2, 1)
	ix.ApplyPoolCreated(2, "b", "cosmos1x", "1", 2, 1)

	pools := ix.Pools()
	for i, pool := range pools {
		if pool.PoolID != uint64(i+1) {
			t.Errorf("pools[%d].PoolID = %d, want %d", i, pool.PoolID, i+1)
		}
	}
}
