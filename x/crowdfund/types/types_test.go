package types

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

func testPool(target int64, deadline int64) *Pool {
	return NewPool(1, PoolMetadata{
		Name:         "save the reef",
		Creator:      testAddr("creator"),
		TargetAmount: math.NewInt(target),
		Deadline:     deadline,
	}, 1, []string{testAddr("admin")}, 100)
}

// TestDeriveStatus tests the lazy status derivation rules
func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		totalRaised int64
		now         int64
		want        string
	}{
		{"active before deadline below target", PoolStatusActive, 500, 900, PoolStatusActive},
		{"active exactly at deadline", PoolStatusActive, 500, 1000, PoolStatusActive},
		{"expired one past deadline", PoolStatusActive, 500, 1001, PoolStatusExpired},
		{"funded at exact target", PoolStatusActive, 1000, 900, PoolStatusFunded},
		{"funded above target", PoolStatusActive, 1500, 900, PoolStatusFunded},
		{"funded wins over expired", PoolStatusActive, 1000, 2000, PoolStatusFunded},
		{"funded is sticky", PoolStatusFunded, 0, 2000, PoolStatusFunded},
		{"expired is sticky", PoolStatusExpired, 1500, 900, PoolStatusExpired},
		{"closed is terminal", PoolStatusClosed, 1500, 900, PoolStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := testPool(1000, 1000)
			pool.Status = tt.status
			got := pool.DeriveStatus(math.NewInt(tt.totalRaised), tt.now)
			if got != tt.want {
				t.Errorf("DeriveStatus(raised=%d, now=%d) from %s = %s, want %s",
					tt.totalRaised, tt.now, tt.status, got, tt.want)
			}
		})
	}
}

// TestNewPool tests pool construction defaults
func TestNewPool(t *testing.T) {
	pool := testPool(1000, 5000)

	if pool.Status != PoolStatusActive {
		t.Errorf("expected active status, got %s", pool.Status)
	}
	if pool.CreatedAt != 100 {
		t.Errorf("expected created_at 100, got %d", pool.CreatedAt)
	}
	if pool.ClosedAt != 0 {
		t.Errorf("expected zero closed_at, got %d", pool.ClosedAt)
	}
	if pool.RequiredSignatures != 1 {
		t.Errorf("expected 1 required signature, got %d", pool.RequiredSignatures)
	}
}

// TestIsSigner tests signer set membership
func TestIsSigner(t *testing.T) {
	a, b, c := testAddr("alpha"), testAddr("bravo"), testAddr("charlie")
	pool := testPool(1000, 5000)
	pool.Signers = []string{a, b}

	if !pool.IsSigner(a) || !pool.IsSigner(b) {
		t.Error("expected signer set members to be recognized")
	}
	if pool.IsSigner(c) {
		t.Error("expected non-member to be rejected")
	}
	if pool.IsSigner("") {
		t.Error("expected empty address to be rejected")
	}
}

// TestCloseApprovals tests approval accumulation and counting
func TestCloseApprovals(t *testing.T) {
	a, b, c := testAddr("alpha"), testAddr("bravo"), testAddr("charlie")
	approvals := &CloseApprovals{PoolID: 7}

	if approvals.Has(a) {
		t.Error("empty record should have no approvals")
	}
	if got := approvals.CountWith(a); got != 1 {
		t.Errorf("CountWith on empty record = %d, want 1", got)
	}

	approvals.Add(a)
	approvals.Add(b)
	approvals.Add(a) // duplicate ignored
	if len(approvals.Signers) != 2 {
		t.Fatalf("expected 2 distinct approvals, got %d", len(approvals.Signers))
	}

	// caller already approved: not double counted
	if got := approvals.CountWith(a); got != 2 {
		t.Errorf("CountWith(existing) = %d, want 2", got)
	}
	// fresh caller counts alongside stored approvals
	if got := approvals.CountWith(c); got != 3 {
		t.Errorf("CountWith(new) = %d, want 3", got)
	}
}

// TestNewPoolMetrics tests the zero state accumulator
func TestNewPoolMetrics(t *testing.T) {
	metrics := NewPoolMetrics(42)
	if metrics.PoolID != 42 {
		t.Errorf("expected pool id 42, got %d", metrics.PoolID)
	}
	if !metrics.TotalRaised.IsZero() {
		t.Errorf("expected zero total raised, got %s", metrics.TotalRaised)
	}
	if metrics.ContributorCount != 0 || metrics.LastDonationAt != 0 {
		t.Error("expected zeroed counters")
	}
}
