// Package evm speaks the EVM JSON-RPC surface the monitor needs over a
// single provider connection.
package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ndhoang/contractwatch/internal/core/domain"
	"github.com/ndhoang/contractwatch/internal/infra/rpc/provider"
)

// NodeClient wraps a provider with the typed calls the block loop makes.
// Every call is bounded by the configured provider timeout.
type NodeClient struct {
	chainID  uint64
	provider provider.Provider
	timeout  time.Duration
}

// NewNodeClient creates a client over an established provider.
func NewNodeClient(chainID uint64, p provider.Provider, timeout time.Duration) *NodeClient {
	return &NodeClient{chainID: chainID, provider: p, timeout: timeout}
}

// Provider exposes the underlying provider.
func (c *NodeClient) Provider() provider.Provider {
	return c.provider
}

// Close releases the underlying provider connection.
func (c *NodeClient) Close() error {
	return c.provider.Close()
}

// GetBlockNumber returns the node's current head block number.
func (c *NodeClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.provider.Call(ctx, "eth_blockNumber", []any{})
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}

	var head hexutil.Uint64
	if err := json.Unmarshal(raw, &head); err != nil {
		return 0, fmt.Errorf("parse block number: %w", err)
	}
	return uint64(head), nil
}

// GetBlock fetches a block with full transactions. A block the node does not
// have yet comes back as (nil, nil).
func (c *NodeClient) GetBlock(ctx context.Context, number uint64) (*domain.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.provider.Call(ctx, "eth_getBlockByNumber",
		[]any{hexutil.EncodeUint64(number), true})
	if err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber %d: %w", number, err)
	}
	if isNull(raw) {
		return nil, nil
	}

	var rb rpcBlock
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, fmt.Errorf("parse block %d: %w", number, err)
	}
	return rb.toDomain()
}

// GetCode fetches the deployed bytecode at an address. An empty result ("0x")
// comes back as a zero-length slice.
func (c *NodeClient) GetCode(ctx context.Context, addr common.Address) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.provider.Call(ctx, "eth_getCode", []any{addr.Hex(), "latest"})
	if err != nil {
		return nil, fmt.Errorf("eth_getCode %s: %w", addr.Hex(), err)
	}

	var code hexutil.Bytes
	if err := json.Unmarshal(raw, &code); err != nil {
		return nil, fmt.Errorf("parse code: %w", err)
	}
	return code, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

type rpcBlock struct {
	Number       hexutil.Uint64   `json:"number"`
	Hash         common.Hash      `json:"hash"`
	ParentHash   common.Hash      `json:"parentHash"`
	Timestamp    hexutil.Uint64   `json:"timestamp"`
	Transactions []rpcTransaction `json:"transactions"`
}

type rpcTransaction struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Nonce hexutil.Uint64  `json:"nonce"`
}

func (b *rpcBlock) toDomain() (*domain.Block, error) {
	blk := &domain.Block{
		Number:       uint64(b.Number),
		Hash:         b.Hash,
		ParentHash:   b.ParentHash,
		Timestamp:    uint64(b.Timestamp),
		Transactions: make([]*domain.Transaction, len(b.Transactions)),
	}
	for i, tx := range b.Transactions {
		blk.Transactions[i] = &domain.Transaction{
			Hash:  tx.Hash,
			From:  tx.From,
			To:    tx.To,
			Nonce: uint64(tx.Nonce),
			Index: i,
		}
	}
	return blk, nil
}
