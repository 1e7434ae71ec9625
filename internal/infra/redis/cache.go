package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndhoang/contractwatch/internal/verification"
)

// CachedRepository fronts a repository with the verified-address cache. The
// repository stays authoritative; cache errors fall through to it.
type CachedRepository struct {
	inner verification.RepositoryService
	cache *Client
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedRepository wraps a repository. A nil cache client degrades to a
// pass-through.
func NewCachedRepository(inner verification.RepositoryService, cache *Client, ttl time.Duration, log *slog.Logger) *CachedRepository {
	return &CachedRepository{inner: inner, cache: cache, ttl: ttl, log: log}
}

// CheckByChainAndAddress consults the cache first and falls back to the
// repository on a miss or cache error.
func (r *CachedRepository) CheckByChainAndAddress(
	ctx context.Context,
	chainID uint64,
	addr common.Address,
) ([]verification.Match, error) {
	if r.cache != nil {
		hit, err := r.cache.IsVerified(ctx, chainID, addr.Hex())
		if err != nil {
			r.log.Warn("verified cache lookup failed", "error", err)
		} else if hit {
			return []verification.Match{{ChainID: chainID, Address: addr}}, nil
		}
	}

	matches, err := r.inner.CheckByChainAndAddress(ctx, chainID, addr)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 && r.cache != nil {
		if err := r.cache.MarkVerified(ctx, chainID, addr.Hex(), r.ttl); err != nil {
			r.log.Warn("verified cache fill failed", "error", err)
		}
	}
	return matches, nil
}

// StoreMatch writes through to the repository and marks the cache.
func (r *CachedRepository) StoreMatch(
	ctx context.Context,
	contract *verification.CheckedContract,
	match *verification.Match,
) error {
	if err := r.inner.StoreMatch(ctx, contract, match); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.MarkVerified(ctx, match.ChainID, match.Address.Hex(), r.ttl); err != nil {
			r.log.Warn("verified cache fill failed", "error", err)
		}
	}
	return nil
}
