// Package memory implements the verified-contract repository in process
// memory, for tests and database-less runs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndhoang/contractwatch/internal/verification"
)

// MatchRepo is an in-memory verification.RepositoryService.
type MatchRepo struct {
	mu      sync.RWMutex
	matches map[string]verification.Match
}

// NewMatchRepo creates an empty in-memory repository.
func NewMatchRepo() *MatchRepo {
	return &MatchRepo{matches: make(map[string]verification.Match)}
}

func key(chainID uint64, addr common.Address) string {
	return fmt.Sprintf("%d:%s", chainID, strings.ToLower(addr.Hex()))
}

// CheckByChainAndAddress returns stored matches for a deployed address.
func (r *MatchRepo) CheckByChainAndAddress(
	ctx context.Context,
	chainID uint64,
	addr common.Address,
) ([]verification.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.matches[key(chainID, addr)]; ok {
		return []verification.Match{m}, nil
	}
	return nil, nil
}

// StoreMatch persists a verification result.
func (r *MatchRepo) StoreMatch(
	ctx context.Context,
	contract *verification.CheckedContract,
	match *verification.Match,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[key(match.ChainID, match.Address)] = *match
	return nil
}

// Len reports the number of stored matches.
func (r *MatchRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
