package keeper

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

// mockBankKeeper records transfers instead of moving real balances. Setting
// failNext makes the next transfer error, which exercises the abort-before-
// write path in Contribute.
type mockBankKeeper struct {
	toModule   sdk.Coins
	toAccounts map[string]sdk.Coins
	failNext   error
}

func newMockBankKeeper() *mockBankKeeper {
	return &mockBankKeeper{
		toModule:   sdk.NewCoins(),
		toAccounts: make(map[string]sdk.Coins),
	}
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.toModule = m.toModule.Add(amt...)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.toModule = m.toModule.Sub(amt...)
	m.toAccounts[recipientAddr.String()] = m.toAccounts[recipientAddr.String()].Add(amt...)
	return nil
}

var testAdmin = sdk.AccAddress([]byte("platform_admin______")).String()

func testAddr(seed string) string {
	return sdk.AccAddress([]byte(seed + "____________________")[:20]).String()
}

// setupKeeper creates a keeper over an in-memory IAVL store. Block time starts
// at a fixed epoch and is advanced per test with withBlockTime.
func setupKeeper(t *testing.T) (*Keeper, sdk.Context, *mockBankKeeper) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: time.Unix(baseTime, 0)}, false, log.NewNopLogger())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := newMockBankKeeper()
	k := NewKeeper(cdc, storeKey, bank, testAdmin, log.NewNopLogger())

	return k, ctx, bank
}

const baseTime = int64(1_700_000_000)

// withBlockTime returns a context whose block time is baseTime + offset seconds
func withBlockTime(ctx sdk.Context, offset int64) sdk.Context {
	return ctx.WithBlockTime(time.Unix(baseTime+offset, 0))
}

// createTestPool creates an Active pool with a 1000-second deadline window and
// the platform admin as sole signer.
func createTestPool(t *testing.T, k *Keeper, ctx sdk.Context, target int64) *types.Pool {
	t.Helper()
	pool, err := k.CreatePool(ctx, testAddr("creator"), types.PoolMetadata{
		Name:         "save the reef",
		Description:  "coral restoration fund",
		TargetAmount: math.NewInt(target),
		Deadline:     baseTime + 1000,
	}, 0, nil)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	return pool
}
