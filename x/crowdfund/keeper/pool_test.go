package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// TestCreatePool tests pool creation and defaulting
func TestCreatePool(t *testing.T) {
	k, ctx, _ := setupKeeper(t)

	pool := createTestPool(t, k, ctx, 1000000)

	if pool.ID != 1 {
		t.Errorf("first pool id = %d, want 1", pool.ID)
	}
	if pool.Status != types.PoolStatusActive {
		t.Errorf("status = %s, want active", pool.Status)
	}
	if pool.CreatedAt != baseTime {
		t.Errorf("created_at = %d, want %d", pool.CreatedAt, baseTime)
	}
	// empty release policy defaults to the platform admin as sole signer
	if pool.RequiredSignatures != 1 {
		t.Errorf("required signatures = %d, want 1", pool.RequiredSignatures)
	}
	if len(pool.Signers) != 1 || pool.Signers[0] != testAdmin {
		t.Errorf("signers = %v, want [%s]", pool.Signers, testAdmin)
	}

	stored := k.GetPool(ctx, pool.ID)
	if stored == nil {
		t.Fatal("pool not persisted")
	}
	if stored.Metadata.Name != "save the reef" {
		t.Errorf("stored name = %s", stored.Metadata.Name)
	}

	// ids are monotonic
	second := createTestPool(t, k, ctx, 500)
	if second.ID != 2 {
		t.Errorf("second pool id = %d, want 2", second.ID)
	}
}

// TestCreatePoolValidation tests creation rejections
func TestCreatePoolValidation(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	creator := testAddr("creator")
	signer := testAddr("signer1")

	tests := []struct {
		name     string
		creator  string
		metadata types.PoolMetadata
		sigs     uint32
		signers  []string
		wantErr  error
	}{
		{
			name:    "empty name",
			creator: creator,
			metadata: types.PoolMetadata{
				TargetAmount: math.NewInt(1000),
				Deadline:     baseTime + 100,
			},
			wantErr: types.ErrInvalidPoolName,
		},
		{
			name:    "zero target",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.ZeroInt(),
				Deadline:     baseTime + 100,
			},
			wantErr: types.ErrInvalidTarget,
		},
		{
			name:    "negative target",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.NewInt(-5),
				Deadline:     baseTime + 100,
			},
			wantErr: types.ErrInvalidTarget,
		},
		{
			name:    "deadline in the past",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.NewInt(1000),
				Deadline:     baseTime - 1,
			},
			wantErr: types.ErrInvalidDeadline,
		},
		{
			name:    "deadline equals now",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.NewInt(1000),
				Deadline:     baseTime,
			},
			wantErr: types.ErrInvalidDeadline,
		},
		{
			name:    "threshold exceeds signer set",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.NewInt(1000),
				Deadline:     baseTime + 100,
			},
			sigs:    2,
			signers: []string{signer},
			wantErr: types.ErrInvalidSigners,
		},
		{
			name:    "duplicate signer",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.NewInt(1000),
				Deadline:     baseTime + 100,
			},
			signers: []string{signer, signer},
			wantErr: types.ErrInvalidSigners,
		},
		{
			name:    "malformed signer",
			creator: creator,
			metadata: types.PoolMetadata{
				Name:         "x",
				TargetAmount: math.NewInt(1000),
				Deadline:     baseTime + 100,
			},
			signers: []string{"garbage"},
			wantErr: types.ErrInvalidSigners,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.CreatePool(ctx, tt.creator, tt.metadata, tt.sigs, tt.signers)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreatePool err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestCreatePoolNoAdminNoSigners tests creation without admin or explicit signers
func TestCreatePoolNoAdminNoSigners(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	k.authority = ""

	_, err := k.CreatePool(ctx, testAddr("creator"), types.PoolMetadata{
		Name:         "x",
		TargetAmount: math.NewInt(1000),
		Deadline:     baseTime + 100,
	}, 0, nil)
	if !errors.Is(err, types.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

// TestObserveStatusExpiry tests the lazy Active -> Expired transition
func TestObserveStatusExpiry(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	// still active at the exact deadline second
	at := withBlockTime(ctx, 1000)
	if got := k.ObserveStatus(at, pool, math.ZeroInt()); got != types.PoolStatusActive {
		t.Errorf("status at deadline = %s, want active", got)
	}

	// one second past: expired, and the transition is persisted
	past := withBlockTime(ctx, 1001)
	if got := k.ObserveStatus(past, pool, math.ZeroInt()); got != types.PoolStatusExpired {
		t.Errorf("status past deadline = %s, want expired", got)
	}
	if stored := k.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusExpired {
		t.Errorf("persisted status = %s, want expired", stored.Status)
	}

	// expired stays expired even if the target is later met on paper
	if got := k.ObserveStatus(past, pool, math.NewInt(2000000)); got != types.PoolStatusExpired {
		t.Errorf("terminal status re-derived to %s", got)
	}
}

// TestObserveStatusFunded tests the Active -> Funded transition at target
func TestObserveStatusFunded(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000)

	if got := k.ObserveStatus(ctx, pool, math.NewInt(999)); got != types.PoolStatusActive {
		t.Errorf("below target = %s, want active", got)
	}
	if got := k.ObserveStatus(ctx, pool, math.NewInt(1000)); got != types.PoolStatusFunded {
		t.Errorf("at target = %s, want funded", got)
	}

	// funded wins over a simultaneously passed deadline
	fresh := createTestPool(t, k, ctx, 1000)
	late := withBlockTime(ctx, 5000)
	if got := k.ObserveStatus(late, fresh, math.NewInt(1000)); got != types.PoolStatusFunded {
		t.Errorf("funded+expired race = %s, want funded", got)
	}
}

// TestEndBlockerSweep tests the deadline sweep expiring pools without traffic
func TestEndBlockerSweep(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	// before the deadline nothing happens
	if err := k.EndBlocker(withBlockTime(ctx, 500)); err != nil {
		t.Fatal(err)
	}
	if stored := k.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusActive {
		t.Errorf("status = %s, want active", stored.Status)
	}

	// past the deadline the sweep persists Expired
	if err := k.EndBlocker(withBlockTime(ctx, 1500)); err != nil {
		t.Fatal(err)
	}
	if stored := k.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusExpired {
		t.Errorf("status = %s, want expired", stored.Status)
	}
}

// TestEndBlockerSeedsFromStore tests index recovery after a keeper restart
func TestEndBlockerSeedsFromStore(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	// a fresh keeper over the same store simulates a restart with an empty
	// in-memory index
	restarted := NewKeeper(k.cdc, k.storeKey, bank, testAdmin, k.logger)
	if err := restarted.EndBlocker(withBlockTime(ctx, 1500)); err != nil {
		t.Fatal(err)
	}
	if stored := restarted.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusExpired {
		t.Errorf("status after reseed = %s, want expired", stored.Status)
	}
}

// TestQueryPool tests the read path with derived status
func TestQueryPool(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	info, err := k.QueryPool(ctx, pool.ID)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != types.PoolStatusActive {
		t.Errorf("derived status = %s, want active", info.Status)
	}

	// past the deadline the query reports expired without writing
	late, err := k.QueryPool(withBlockTime(ctx, 2000), pool.ID)
	if err != nil {
		t.Fatal(err)
	}
	if late.Status != types.PoolStatusExpired {
		t.Errorf("derived status = %s, want expired", late.Status)
	}
	if stored := k.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusActive {
		t.Errorf("query mutated persisted status to %s", stored.Status)
	}

	if _, err := k.QueryPool(ctx, 999); !errors.Is(err, types.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

// TestQueryPools tests the pool listing
func TestQueryPools(t *testing.T) {
	k, ctx, _ := setupKeeper(t)

	if infos := k.QueryPools(ctx); len(infos) != 0 {
		t.Errorf("expected empty listing, got %d", len(infos))
	}

	createTestPool(t, k, ctx, 1000)
	createTestPool(t, k, ctx, 2000)

	infos := k.QueryPools(ctx)
	if len(infos) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(infos))
	}
	if infos[0].Pool.ID != 1 || infos[1].Pool.ID != 2 {
		t.Errorf("pools out of id order: %d, %d", infos[0].Pool.ID, infos[1].Pool.ID)
	}
}
