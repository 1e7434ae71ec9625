package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// HTTPClient implements VerificationService against a verifier sidecar over
// HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a verifier client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	ChainID         uint64            `json:"chain_id"`
	Address         string            `json:"address"`
	CreatorTxHash   string            `json:"creator_tx_hash"`
	Name            string            `json:"name"`
	Metadata        json.RawMessage   `json:"metadata"`
	Sources         map[string]string `json:"sources"`
	CompilerVersion string            `json:"compiler_version"`
}

type verifyResponse struct {
	Status string `json:"status"`
}

// VerifyDeployed submits the contract for verification and maps the verdict
// to a Match.
func (c *HTTPClient) VerifyDeployed(ctx context.Context, contract *CheckedContract,
	chainID uint64, addr common.Address, creatorTxHash common.Hash) (*Match, error) {

	body, err := json.Marshal(verifyRequest{
		ChainID:         chainID,
		Address:         addr.Hex(),
		CreatorTxHash:   creatorTxHash.Hex(),
		Name:            contract.Name,
		Metadata:        contract.Metadata,
		Sources:         contract.Sources,
		CompilerVersion: contract.CompilerVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifier http %d: %s", resp.StatusCode, string(respBody))
	}

	var vr verifyResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	var status MatchStatus
	switch vr.Status {
	case "perfect":
		status = MatchPerfect
	case "partial":
		status = MatchPartial
	default:
		return nil, fmt.Errorf("no match for %s on chain %d", addr.Hex(), chainID)
	}

	return &Match{
		ChainID:       chainID,
		Address:       addr,
		CreatorTxHash: creatorTxHash,
		Status:        status,
		VerifiedAt:    time.Now(),
	}, nil
}
