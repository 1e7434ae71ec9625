package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndhoang/contractwatch/internal/verification"
)

// MatchRepo implements verification.RepositoryService using PostgreSQL.
type MatchRepo struct {
	db *DB
}

// NewMatchRepo creates a new PostgreSQL match repository.
func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

type matchRow struct {
	ChainID    uint64    `db:"chain_id"`
	Address    string    `db:"address"`
	Status     string    `db:"status"`
	TxHash     string    `db:"tx_hash"`
	VerifiedAt time.Time `db:"verified_at"`
}

func (r *matchRow) toDomain() verification.Match {
	return verification.Match{
		ChainID:       r.ChainID,
		Address:       common.HexToAddress(r.Address),
		CreatorTxHash: common.HexToHash(r.TxHash),
		Status:        verification.MatchStatus(r.Status),
		VerifiedAt:    r.VerifiedAt,
	}
}

// CheckByChainAndAddress returns stored matches for a deployed address.
func (r *MatchRepo) CheckByChainAndAddress(
	ctx context.Context,
	chainID uint64,
	addr common.Address,
) ([]verification.Match, error) {
	query := `
		SELECT chain_id, address, status, tx_hash, verified_at
		FROM verified_contracts
		WHERE chain_id = $1 AND address = $2
	`

	var rows []matchRow
	err := r.db.SelectContext(ctx, &rows, query, chainID, normalize(addr))
	if err != nil {
		return nil, fmt.Errorf("failed to check verified contract: %w", err)
	}

	matches := make([]verification.Match, len(rows))
	for i, row := range rows {
		matches[i] = row.toDomain()
	}
	return matches, nil
}

// StoreMatch persists a verification result.
func (r *MatchRepo) StoreMatch(
	ctx context.Context,
	contract *verification.CheckedContract,
	match *verification.Match,
) error {
	query := `
		INSERT INTO verified_contracts (chain_id, address, name, status, tx_hash, compiler, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chain_id, address) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			tx_hash = EXCLUDED.tx_hash,
			compiler = EXCLUDED.compiler,
			verified_at = EXCLUDED.verified_at
	`

	verifiedAt := match.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		match.ChainID,
		normalize(match.Address),
		contract.Name,
		string(match.Status),
		match.CreatorTxHash.Hex(),
		contract.CompilerVersion,
		verifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}
	return nil
}

func normalize(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
