package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Block is the subset of an EVM block the monitor cares about. Transactions
// are kept in block order.
type Block struct {
	Number       uint64
	Hash         common.Hash
	ParentHash   common.Hash
	Timestamp    uint64
	Transactions []*Transaction
}

// Transaction is a single transaction within a block. To is nil for contract
// creation transactions.
type Transaction struct {
	Hash  common.Hash
	From  common.Address
	To    *common.Address
	Nonce uint64
	Index int
}

// CreatesContract reports whether the transaction deploys a contract.
func (t *Transaction) CreatesContract() bool {
	return t.To == nil
}

// DeployedAddress derives the address of the contract created by this
// transaction from the sender and nonce.
func (t *Transaction) DeployedAddress() common.Address {
	return crypto.CreateAddress(t.From, t.Nonce)
}
