package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func verifierServer(t *testing.T, status string) (*httptest.Server, *sync.Mutex, *map[string]any) {
	t.Helper()
	var mu sync.Mutex
	captured := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		mu.Lock()
		for k, v := range body {
			captured[k] = v
		}
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
	return srv, &mu, &captured
}

func testContract() *CheckedContract {
	return &CheckedContract{
		Name:            "Token",
		Metadata:        []byte(`{"compiler":{"version":"0.8.20"}}`),
		Sources:         map[string]string{"Token.sol": "pragma solidity ^0.8.20;"},
		CompilerVersion: "0.8.20",
	}
}

func TestVerifyDeployedPerfect(t *testing.T) {
	srv, mu, captured := verifierServer(t, "perfect")
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	txHash := common.HexToHash("0xaa")

	match, err := c.VerifyDeployed(context.Background(), testContract(), 1, addr, txHash)
	if err != nil {
		t.Fatalf("VerifyDeployed failed: %v", err)
	}
	if match.Status != MatchPerfect {
		t.Errorf("Expected perfect match, got %s", match.Status)
	}
	if match.Address != addr || match.ChainID != 1 {
		t.Errorf("Match does not carry request identity: %+v", match)
	}
	if match.VerifiedAt.IsZero() {
		t.Error("Expected VerifiedAt set")
	}

	mu.Lock()
	defer mu.Unlock()
	if (*captured)["address"] != addr.Hex() {
		t.Errorf("Expected address %s in request, got %v", addr.Hex(), (*captured)["address"])
	}
	if (*captured)["name"] != "Token" {
		t.Errorf("Expected contract name in request, got %v", (*captured)["name"])
	}
}

func TestVerifyDeployedPartial(t *testing.T) {
	srv, _, _ := verifierServer(t, "partial")
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	match, err := c.VerifyDeployed(context.Background(), testContract(), 1,
		common.HexToAddress("0x01"), common.HexToHash("0x02"))
	if err != nil {
		t.Fatalf("VerifyDeployed failed: %v", err)
	}
	if match.Status != MatchPartial {
		t.Errorf("Expected partial match, got %s", match.Status)
	}
}

func TestVerifyDeployedNoMatch(t *testing.T) {
	srv, _, _ := verifierServer(t, "none")
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	if _, err := c.VerifyDeployed(context.Background(), testContract(), 1,
		common.HexToAddress("0x01"), common.HexToHash("0x02")); err == nil {
		t.Error("Expected error for unmatched contract")
	}
}

func TestVerifyDeployedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	if _, err := c.VerifyDeployed(context.Background(), testContract(), 1,
		common.HexToAddress("0x01"), common.HexToHash("0x02")); err == nil {
		t.Error("Expected error for verifier http 500")
	}
}

func TestVerifyDeployedUnreachable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := c.VerifyDeployed(context.Background(), testContract(), 1,
		common.HexToAddress("0x01"), common.HexToHash("0x02")); err == nil {
		t.Error("Expected transport error")
	}
}
