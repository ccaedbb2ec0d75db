package keeper

import (
	"errors"
	"fmt"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// TestContribute tests the gross debit / fee split / net credit flow
func TestContribute(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)
	alice := testAddr("alice")

	if err := k.SetPlatformFee(ctx, testAdmin, 250); err != nil {
		t.Fatal(err)
	}

	fee, net, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(100000), false)
	if err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if !fee.Equal(math.NewInt(2500)) {
		t.Errorf("fee = %s, want 2500", fee)
	}
	if !net.Equal(math.NewInt(97500)) {
		t.Errorf("net = %s, want 97500", net)
	}

	// the full gross amount entered module custody
	if got := bank.toModule.AmountOf("uatom"); !got.Equal(math.NewInt(100000)) {
		t.Errorf("custody = %s, want 100000", got)
	}

	// pool was credited with the net amount only
	metrics := k.GetPoolMetrics(ctx, pool.ID)
	if !metrics.TotalRaised.Equal(net) {
		t.Errorf("total raised = %s, want %s", metrics.TotalRaised, net)
	}
	if metrics.ContributorCount != 1 {
		t.Errorf("contributor count = %d, want 1", metrics.ContributorCount)
	}
	if metrics.LastDonationAt != baseTime {
		t.Errorf("last donation at = %d, want %d", metrics.LastDonationAt, baseTime)
	}

	// the fee landed in the platform accumulator
	if got := k.GetPlatformFees(ctx); !got.Equal(fee) {
		t.Errorf("platform fees = %s, want %s", got, fee)
	}

	// the per-contributor ledger holds the net amount
	contribution := k.GetContribution(ctx, pool.ID, alice, "uatom")
	if !contribution.Amount.Equal(net) {
		t.Errorf("ledger amount = %s, want %s", contribution.Amount, net)
	}
}

// TestContributeValidation tests the rejection paths
func TestContributeValidation(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)
	alice := testAddr("alice")

	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.ZeroInt(), false); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(-5), false); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := k.Contribute(ctx, alice, 999, "uatom", math.NewInt(100), false); !errors.Is(err, types.ErrPoolNotFound) {
		t.Errorf("missing pool: expected ErrPoolNotFound, got %v", err)
	}

	// expired pool rejects contributions
	late := withBlockTime(ctx, 2000)
	if _, _, err := k.Contribute(late, alice, pool.ID, "uatom", math.NewInt(100), false); !errors.Is(err, types.ErrPoolNotActive) {
		t.Errorf("expired pool: expected ErrPoolNotActive, got %v", err)
	}

	// nothing reached custody and no metrics were written
	if !bank.toModule.IsZero() {
		t.Errorf("custody = %s after rejected contributions", bank.toModule)
	}
	if metrics := k.GetPoolMetrics(ctx, pool.ID); !metrics.TotalRaised.IsZero() {
		t.Errorf("metrics written on rejected path: %s", metrics.TotalRaised)
	}
}

// TestContributeTransferFailure tests that a failed bank transfer leaves no
// partial state behind
func TestContributeTransferFailure(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)
	alice := testAddr("alice")

	bank.failNext = fmt.Errorf("insufficient funds")
	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(1000), false); err == nil {
		t.Fatal("expected transfer error")
	}

	if metrics := k.GetPoolMetrics(ctx, pool.ID); !metrics.TotalRaised.IsZero() || metrics.ContributorCount != 0 {
		t.Errorf("partial metrics after failed transfer: %+v", metrics)
	}
	if !k.GetPlatformFees(ctx).IsZero() {
		t.Error("platform fees accrued on failed transfer")
	}
	if contribution := k.GetContribution(ctx, pool.ID, alice, "uatom"); !contribution.Amount.IsZero() {
		t.Errorf("ledger written on failed transfer: %s", contribution.Amount)
	}
}

// TestContributeAccumulation tests repeat and multi-asset contributions
func TestContributeAccumulation(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)
	alice, bob := testAddr("alice"), testAddr("bob")

	if err := k.SetPlatformFee(ctx, testAdmin, 250); err != nil {
		t.Fatal(err)
	}

	// two contributions from alice in two assets, one from bob
	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(10000), false); err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uusdc", math.NewInt(20000), false); err != nil {
		t.Fatal(err)
	}
	if _, _, err := k.Contribute(ctx, bob, pool.ID, "uatom", math.NewInt(10000), false); err != nil {
		t.Fatal(err)
	}

	// contributor count is per distinct address, not per contribution
	metrics := k.GetPoolMetrics(ctx, pool.ID)
	if metrics.ContributorCount != 2 {
		t.Errorf("contributor count = %d, want 2", metrics.ContributorCount)
	}

	// ledger records are per (contributor, asset) and accumulate
	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(10000), false); err != nil {
		t.Fatal(err)
	}
	aliceAtom := k.GetContribution(ctx, pool.ID, alice, "uatom")
	if !aliceAtom.Amount.Equal(math.NewInt(19500)) { // 2 * (10000 - 250)
		t.Errorf("alice uatom ledger = %s, want 19500", aliceAtom.Amount)
	}

	// total raised equals the sum of all ledger entries
	var sum = math.ZeroInt()
	for _, c := range k.GetPoolContributions(ctx, pool.ID) {
		sum = sum.Add(c.Amount)
	}
	metrics = k.GetPoolMetrics(ctx, pool.ID)
	if !metrics.TotalRaised.Equal(sum) {
		t.Errorf("total raised %s != ledger sum %s", metrics.TotalRaised, sum)
	}
}

// TestContributeFeeDiscount tests the per-asset discount on the payment path
func TestContributeFeeDiscount(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	if err := k.SetPlatformFee(ctx, testAdmin, 250); err != nil {
		t.Fatal(err)
	}
	if err := k.SetAssetDiscount(ctx, testAdmin, "uusdc", 5000); err != nil {
		t.Fatal(err)
	}

	fee, net, err := k.Contribute(ctx, testAddr("alice"), pool.ID, "uusdc", math.NewInt(100000), false)
	if err != nil {
		t.Fatal(err)
	}
	// 125 bps effective after the 50% discount
	if !fee.Equal(math.NewInt(1250)) {
		t.Errorf("fee = %s, want 1250", fee)
	}
	if !net.Equal(math.NewInt(98750)) {
		t.Errorf("net = %s, want 98750", net)
	}
}

// TestContributeMixedAssetDiscounts tests one pool taking two assets whose
// discounts differ, so each contribution pays its own effective rate
func TestContributeMixedAssetDiscounts(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)
	alice := testAddr("alice")

	if err := k.SetPlatformFee(ctx, testAdmin, 1000); err != nil {
		t.Fatal(err)
	}
	// uusdc is half price, uatom pays the full base rate
	if err := k.SetAssetDiscount(ctx, testAdmin, "uusdc", 5000); err != nil {
		t.Fatal(err)
	}

	fee, net, err := k.Contribute(ctx, alice, pool.ID, "uusdc", math.NewInt(1000), false)
	if err != nil {
		t.Fatal(err)
	}
	if !fee.Equal(math.NewInt(50)) || !net.Equal(math.NewInt(950)) {
		t.Errorf("uusdc split = %s/%s, want 50/950", fee, net)
	}

	fee, net, err = k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(1000), false)
	if err != nil {
		t.Fatal(err)
	}
	if !fee.Equal(math.NewInt(100)) || !net.Equal(math.NewInt(900)) {
		t.Errorf("uatom split = %s/%s, want 100/900", fee, net)
	}

	// total raised is the sum of the two nets, fees the sum of the two fees
	metrics := k.GetPoolMetrics(ctx, pool.ID)
	if !metrics.TotalRaised.Equal(math.NewInt(1850)) {
		t.Errorf("total raised = %s, want 1850", metrics.TotalRaised)
	}
	if got := k.GetPlatformFees(ctx); !got.Equal(math.NewInt(150)) {
		t.Errorf("platform fees = %s, want 150", got)
	}

	// custody holds both gross amounts
	if got := bank.toModule.AmountOf("uusdc"); !got.Equal(math.NewInt(1000)) {
		t.Errorf("uusdc custody = %s, want 1000", got)
	}
	if got := bank.toModule.AmountOf("uatom"); !got.Equal(math.NewInt(1000)) {
		t.Errorf("uatom custody = %s, want 1000", got)
	}
}

// TestContributeZeroFeeConfig tests contribution with no fee configured
func TestContributeZeroFeeConfig(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	fee, net, err := k.Contribute(ctx, testAddr("alice"), pool.ID, "uatom", math.NewInt(5000), false)
	if err != nil {
		t.Fatal(err)
	}
	if !fee.IsZero() {
		t.Errorf("fee = %s, want 0", fee)
	}
	if !net.Equal(math.NewInt(5000)) {
		t.Errorf("net = %s, want 5000", net)
	}
}

// TestContributeReachesTarget tests the Funded transition on the contribution
// that crosses the target
func TestContributeReachesTarget(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 10000)
	alice := testAddr("alice")

	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(9999), false); err != nil {
		t.Fatal(err)
	}
	if stored := k.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusActive {
		t.Errorf("status below target = %s, want active", stored.Status)
	}

	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(1), false); err != nil {
		t.Fatal(err)
	}
	if stored := k.GetPool(ctx, pool.ID); stored.Status != types.PoolStatusFunded {
		t.Errorf("status at target = %s, want funded", stored.Status)
	}

	// a funded pool accepts no further contributions
	if _, _, err := k.Contribute(ctx, alice, pool.ID, "uatom", math.NewInt(1), false); !errors.Is(err, types.ErrPoolNotActive) {
		t.Errorf("funded pool: expected ErrPoolNotActive, got %v", err)
	}
}

// TestPlatformFeesMonotonic tests the fee accumulator only grows
func TestPlatformFeesMonotonic(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 100000000)

	if err := k.SetPlatformFee(ctx, testAdmin, 100); err != nil {
		t.Fatal(err)
	}

	prev := math.ZeroInt()
	for i := 0; i < 5; i++ {
		contributor := testAddr(fmt.Sprintf("donor%d", i))
		if _, _, err := k.Contribute(ctx, contributor, pool.ID, "uatom", math.NewInt(10000), false); err != nil {
			t.Fatal(err)
		}
		total := k.GetPlatformFees(ctx)
		if total.LT(prev) {
			t.Fatalf("fee accumulator decreased: %s -> %s", prev, total)
		}
		prev = total
	}
	if !prev.Equal(math.NewInt(500)) { // 5 * floor(10000*100/10000)
		t.Errorf("accumulated fees = %s, want 500", prev)
	}
}

// TestContributeEmitsNetAmount tests that the public event reports net, not gross
func TestContributeEmitsNetAmount(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 1000000)

	if err := k.SetPlatformFee(ctx, testAdmin, 250); err != nil {
		t.Fatal(err)
	}

	ctx = ctx.WithEventManager(sdk.NewEventManager())
	if _, _, err := k.Contribute(ctx, testAddr("alice"), pool.ID, "uatom", math.NewInt(100000), true); err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, event := range ctx.EventManager().Events() {
		if event.Type != types.EventTypeContribute {
			continue
		}
		found = true
		attrs := make(map[string]string, len(event.Attributes))
		for _, attr := range event.Attributes {
			attrs[attr.Key] = attr.Value
		}
		if attrs[types.AttributeKeyNetAmount] != "97500" {
			t.Errorf("event net = %s, want 97500", attrs[types.AttributeKeyNetAmount])
		}
		if attrs[types.AttributeKeyFeeAmount] != "2500" {
			t.Errorf("event fee = %s, want 2500", attrs[types.AttributeKeyFeeAmount])
		}
		if attrs[types.AttributeKeyIsPrivate] != "true" {
			t.Errorf("event is_private = %s, want true", attrs[types.AttributeKeyIsPrivate])
		}
	}
	if !found {
		t.Error("no contribution event emitted")
	}
}
