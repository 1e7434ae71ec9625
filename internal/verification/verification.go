// Package verification defines the contracts the monitor hands verified
// deployments to. Implementations live elsewhere; the monitor only depends on
// these interfaces.
package verification

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MatchStatus grades how closely recompiled bytecode matched the chain.
type MatchStatus string

const (
	MatchPerfect MatchStatus = "perfect"
	MatchPartial MatchStatus = "partial"
)

// CheckedContract is a contract reassembled from fetched sources, ready for
// verification.
type CheckedContract struct {
	Name            string
	Metadata        []byte
	Sources         map[string]string
	CompilerVersion string
}

// Match records a verification result for a deployed contract.
type Match struct {
	ChainID       uint64
	Address       common.Address
	CreatorTxHash common.Hash
	Status        MatchStatus
	VerifiedAt    time.Time
}

// VerificationService verifies a reassembled contract against its on-chain
// deployment.
type VerificationService interface {
	VerifyDeployed(ctx context.Context, contract *CheckedContract, chainID uint64,
		addr common.Address, creatorTxHash common.Hash) (*Match, error)
}

// RepositoryService is the store of verified contracts.
type RepositoryService interface {
	// CheckByChainAndAddress returns existing matches for an address, empty
	// when the contract is unknown.
	CheckByChainAndAddress(ctx context.Context, chainID uint64, addr common.Address) ([]Match, error)
	StoreMatch(ctx context.Context, contract *CheckedContract, match *Match) error
}
