package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndhoang/contractwatch/internal/core/config"
	"github.com/ndhoang/contractwatch/internal/core/domain"
	"github.com/ndhoang/contractwatch/internal/events"
	"github.com/ndhoang/contractwatch/internal/metadata"
	"github.com/ndhoang/contractwatch/internal/monitor"
	"github.com/ndhoang/contractwatch/internal/verification"
)

type nullRepo struct{}

func (nullRepo) CheckByChainAndAddress(ctx context.Context, chainID uint64, addr common.Address) ([]verification.Match, error) {
	return nil, nil
}

func (nullRepo) StoreMatch(ctx context.Context, contract *verification.CheckedContract, match *verification.Match) error {
	return nil
}

type nullVerifier struct{}

func (nullVerifier) VerifyDeployed(ctx context.Context, contract *verification.CheckedContract, chainID uint64, addr common.Address, txHash common.Hash) (*verification.Match, error) {
	return &verification.Match{ChainID: chainID, Address: addr}, nil
}

type recordingFetcher struct {
	mu             sync.Mutex
	stopped        bool
	monitorsAtStop []monitor.Status
	statuses       func() []monitor.Status
}

func (f *recordingFetcher) Assemble(src *metadata.SourceAddress, done func(*verification.CheckedContract, error)) {
	done(&verification.CheckedContract{}, nil)
}

func (f *recordingFetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.statuses != nil {
		f.monitorsAtStop = f.statuses()
	}
}

func fakeNode(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "eth_blockNumber":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
		case "eth_getBlockByNumber":
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
		default:
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
		}
	}))
}

func testTunables() config.Tunables {
	t := config.DefaultTunables()
	t.ProviderTimeout = 200 * time.Millisecond
	t.GetBlockPause = 5 * time.Millisecond
	t.BlockPauseLowerLimit = time.Millisecond
	t.BlockPauseUpperLimit = 20 * time.Millisecond
	return t
}

func newTestSupervisor(t *testing.T, chains []domain.ChainDescriptor) (*Supervisor, *events.Bus, *recordingFetcher) {
	t.Helper()
	bus := events.NewBus()
	fetcher := &recordingFetcher{}
	deps := monitor.Deps{
		Fetcher:    fetcher,
		Verifier:   nullVerifier{},
		Repository: nullRepo{},
		Bus:        bus,
	}
	s := NewSupervisor(chains, testTunables(), deps, slog.Default())
	fetcher.statuses = s.Statuses
	return s, bus, fetcher
}

func TestSupervisorStartsAllChains(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	chains := []domain.ChainDescriptor{
		{ChainID: 1, Name: "one", RPCs: []string{node.URL}},
		{ChainID: 2, Name: "two", RPCs: []string{node.URL}},
	}
	s, _, _ := newTestSupervisor(t, chains)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	statuses := s.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("Expected 2 monitors, got %d", len(statuses))
	}
	for _, st := range statuses {
		if st.State != "running" {
			t.Errorf("Expected chain %s running, got %s", st.Chain, st.State)
		}
	}
}

func TestSupervisorDefaultsToRegistry(t *testing.T) {
	s, _, _ := newTestSupervisor(t, nil)
	if len(s.monitors) != len(domain.DefaultChains) {
		t.Errorf("Expected %d monitors from registry, got %d", len(domain.DefaultChains), len(s.monitors))
	}
}

func TestSupervisorFailsWhenNothingStarts(t *testing.T) {
	chains := []domain.ChainDescriptor{
		{ChainID: 1, Name: "dead", RPCs: []string{"http://127.0.0.1:1"}},
	}
	s, _, _ := newTestSupervisor(t, chains)

	if err := s.Start(context.Background()); err == nil {
		t.Error("Expected error when no monitor can start")
	}
}

func TestSupervisorToleratesOneDeadChain(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	chains := []domain.ChainDescriptor{
		{ChainID: 1, Name: "alive", RPCs: []string{node.URL}},
		{ChainID: 2, Name: "dead", RPCs: []string{"http://127.0.0.1:1"}},
	}
	s, bus, _ := newTestSupervisor(t, chains)

	var mu sync.Mutex
	cantStart := 0
	bus.Subscribe(events.ErrCantStart, func(string, events.Payload) {
		mu.Lock()
		cantStart++
		mu.Unlock()
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	mu.Lock()
	defer mu.Unlock()
	if cantStart != 1 {
		t.Errorf("Expected one CantStart event, got %d", cantStart)
	}
}

func TestSupervisorReEmitsSignals(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	chains := []domain.ChainDescriptor{{ChainID: 1, Name: "one", RPCs: []string{node.URL}}}
	s, bus, _ := newTestSupervisor(t, chains)

	var mu sync.Mutex
	var got []string
	bus.Subscribe(events.ContractVerified, func(event string, p events.Payload) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})
	bus.Subscribe(events.ContractAlreadyVerified, func(event string, p events.Payload) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})

	s.monitors[0].OnVerified(events.Payload{"address": "0x01"})
	s.monitors[0].OnAlreadyVerified(events.Payload{"address": "0x02"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != events.ContractVerified || got[1] != events.ContractAlreadyVerified {
		t.Errorf("Unexpected re-emitted signals: %v", got)
	}
}

func TestSupervisorStopsMonitorsBeforeFetcher(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	chains := []domain.ChainDescriptor{{ChainID: 1, Name: "one", RPCs: []string{node.URL}}}
	s, _, fetcher := newTestSupervisor(t, chains)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()

	if !fetcher.stopped {
		t.Fatal("Expected fetcher stopped")
	}
	for _, st := range fetcher.monitorsAtStop {
		if st.State != "stopped" {
			t.Errorf("Expected monitor %s stopped before fetcher, got %s", st.Chain, st.State)
		}
	}
}
