// Package fetch retrieves contract sources from content-addressed storage and
// assembles them into checked contracts.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ndhoang/contractwatch/internal/metadata"
	"github.com/ndhoang/contractwatch/internal/verification"
)

// SourceFetcher assembles contract sources for a source address and delivers
// the result through the callback. Assemble never blocks the caller.
type SourceFetcher interface {
	Assemble(src *metadata.SourceAddress, done func(*verification.CheckedContract, error))
	Stop()
}

// GatewayFetcher fetches metadata documents from an HTTP gateway in front of
// IPFS. Swarm origins are not served by the gateway and fail fast.
type GatewayFetcher struct {
	gateway    string
	httpClient *http.Client
	log        *slog.Logger

	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewGatewayFetcher creates a fetcher against a gateway base URL.
func NewGatewayFetcher(gateway string, timeout time.Duration, log *slog.Logger) *GatewayFetcher {
	return &GatewayFetcher{
		gateway:    gateway,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "fetcher"),
	}
}

// Assemble resolves the source address in the background and reports through
// done. After Stop, new work is rejected immediately.
func (f *GatewayFetcher) Assemble(src *metadata.SourceAddress, done func(*verification.CheckedContract, error)) {
	if f.stopped.Load() {
		done(nil, fmt.Errorf("fetcher stopped"))
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		contract, err := f.fetch(context.Background(), src)
		done(contract, err)
	}()
}

// Stop rejects new work and waits for in-flight fetches to finish.
func (f *GatewayFetcher) Stop() {
	if !f.stopped.CompareAndSwap(false, true) {
		return
	}
	f.wg.Wait()
}

// metadataDoc is the solc metadata JSON published alongside sources.
type metadataDoc struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
	Sources map[string]struct {
		Content string `json:"content"`
	} `json:"sources"`
}

func (f *GatewayFetcher) fetch(ctx context.Context, src *metadata.SourceAddress) (*verification.CheckedContract, error) {
	if src.Origin != metadata.OriginIPFS {
		return nil, fmt.Errorf("origin %s not served by gateway", src.Origin)
	}

	url := fmt.Sprintf("%s/ipfs/%s", f.gateway, src.ID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway http %d for %s", resp.StatusCode, src)
	}

	var doc metadataDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata document %s: %w", src, err)
	}

	name := "Contract"
	for _, target := range doc.Settings.CompilationTarget {
		name = target
		break
	}

	sources := make(map[string]string, len(doc.Sources))
	for path, s := range doc.Sources {
		sources[path] = s.Content
	}

	f.log.Debug("assembled contract sources", "source", src.String(), "files", len(sources))

	return &verification.CheckedContract{
		Name:            name,
		Metadata:        body,
		Sources:         sources,
		CompilerVersion: doc.Compiler.Version,
	}, nil
}
