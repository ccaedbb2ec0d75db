// Package sdk provides a lightweight gRPC client for submitting crowdfund
// transactions without CLI overhead. Campaign frontends and donation relays
// use it to push contribution bursts at chain speed.
package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// Client wraps a gRPC connection to a crowdchain node with a local account
// sequence cache, so a relay can sign and broadcast back-to-back donations
// without an account query per transaction.
type Client struct {
	conn       *grpc.ClientConn
	txClient   txtypes.ServiceClient
	authClient authtypes.QueryClient
	cdc        codec.Codec
	chainID    string
	keyring    keyring.Keyring

	accountCache sync.Map
	mu           sync.RWMutex
}

// NewClient dials a node's gRPC endpoint, e.g. localhost:9090.
func NewClient(grpcAddr, chainID string, cdc codec.Codec, kr keyring.Keyring) (*Client, error) {
	conn, err := grpc.Dial(
		grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(1024*1024*10)), // 10MB
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gRPC: %w", err)
	}

	return &Client{
		conn:       conn,
		txClient:   txtypes.NewServiceClient(conn),
		authClient: authtypes.NewQueryClient(conn),
		cdc:        cdc,
		chainID:    chainID,
		keyring:    kr,
	}, nil
}

// AccountInfo caches account number and sequence for fast tx building
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
	LastUpdated   time.Time
}

// BroadcastTx broadcasts a signed transaction
func (c *Client) BroadcastTx(ctx context.Context, txBytes []byte, mode txtypes.BroadcastMode) (*sdk.TxResponse, error) {
	res, err := c.txClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    mode,
	})
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	return res.TxResponse, nil
}

// BroadcastTxSync broadcasts and waits for the CheckTx result
func (c *Client) BroadcastTxSync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	return c.BroadcastTx(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_SYNC)
}

// BroadcastTxAsync broadcasts without waiting for CheckTx. Donation relays
// use this during campaign finales when throughput matters more than
// per-transaction confirmation.
func (c *Client) BroadcastTxAsync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	return c.BroadcastTx(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_ASYNC)
}

// GetAccountInfo fetches or returns cached account info. The cache window is
// short; relays that sign many txs per block should rely on
// IncrementSequence rather than re-querying.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	if cached, ok := c.accountCache.Load(address); ok {
		info := cached.(*AccountInfo)
		if time.Since(info.LastUpdated) < 100*time.Millisecond {
			return info, nil
		}
	}

	res, err := c.authClient.Account(ctx, &authtypes.QueryAccountRequest{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var acc authtypes.AccountI
	if err := c.cdc.UnpackAny(res.Account, &acc); err != nil {
		return nil, fmt.Errorf("failed to unpack account: %w", err)
	}

	info := &AccountInfo{
		Address:       address,
		AccountNumber: acc.GetAccountNumber(),
		Sequence:      acc.GetSequence(),
		LastUpdated:   time.Now(),
	}

	c.accountCache.Store(address, info)
	return info, nil
}

// IncrementSequence bumps the cached sequence after a successful broadcast
func (c *Client) IncrementSequence(address string) {
	if cached, ok := c.accountCache.Load(address); ok {
		info := cached.(*AccountInfo)
		c.mu.Lock()
		info.Sequence++
		c.mu.Unlock()
	}
}

// BatchBroadcast sends multiple signed transactions in parallel. Responses
// keep the input order; the first error is returned after all sends finish.
func (c *Client) BatchBroadcast(ctx context.Context, txBytesSlice [][]byte) ([]*sdk.TxResponse, error) {
	results := make([]*sdk.TxResponse, len(txBytesSlice))
	errs := make([]error, len(txBytesSlice))
	var wg sync.WaitGroup

	for i, txBytes := range txBytesSlice {
		wg.Add(1)
		go func(idx int, tb []byte) {
			defer wg.Done()
			res, err := c.BroadcastTxAsync(ctx, tb)
			results[idx] = res
			errs[idx] = err
		}(i, txBytes)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, fmt.Errorf("batch broadcast had errors: %w", err)
		}
	}

	return results, nil
}

// ChainID returns the chain the client signs for
func (c *Client) ChainID() string {
	return c.chainID
}

// Keyring returns the signing keyring
func (c *Client) Keyring() keyring.Keyring {
	return c.keyring
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	return c.conn.Close()
}
