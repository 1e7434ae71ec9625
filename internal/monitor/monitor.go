// Package monitor implements the per-chain engine that watches for contract
// deployments and drives them through fetch, verification and storage.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndhoang/contractwatch/internal/core/config"
	"github.com/ndhoang/contractwatch/internal/core/domain"
	"github.com/ndhoang/contractwatch/internal/events"
	"github.com/ndhoang/contractwatch/internal/fetch"
	"github.com/ndhoang/contractwatch/internal/infra/chain/evm"
	"github.com/ndhoang/contractwatch/internal/infra/rpc/provider"
	"github.com/ndhoang/contractwatch/internal/metadata"
	"github.com/ndhoang/contractwatch/internal/monitor/metrics"
	"github.com/ndhoang/contractwatch/internal/verification"
)

// State is the lifecycle position of a chain monitor.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ErrCantStart is returned when no configured endpoint answers the probe.
var ErrCantStart = errors.New("no rpc endpoint could be reached")

// BlockSource is the chain surface the monitor reads from.
type BlockSource interface {
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, number uint64) (*domain.Block, error)
	GetCode(ctx context.Context, addr common.Address) ([]byte, error)
	Close() error
}

// Connector establishes a BlockSource for one endpoint of a chain.
type Connector func(ctx context.Context, chain domain.ChainDescriptor, endpoint string) (BlockSource, error)

// DialSource is the default Connector. It picks the JSON-RPC transport from
// the endpoint scheme.
func DialSource(timeout time.Duration) Connector {
	return func(ctx context.Context, chain domain.ChainDescriptor, endpoint string) (BlockSource, error) {
		p, err := provider.Dial(ctx, chain.Name, endpoint, timeout)
		if err != nil {
			return nil, err
		}
		return evm.NewNodeClient(chain.ChainID, p, timeout), nil
	}
}

// Deps are the collaborators shared across monitors.
type Deps struct {
	Fetcher    fetch.SourceFetcher
	Verifier   verification.VerificationService
	Repository verification.RepositoryService
	Bus        *events.Bus
}

// ChainMonitor watches a single chain for contract deployments. One RPC
// provider is active between Start and Stop; endpoints are only probed at
// start.
type ChainMonitor struct {
	chain    domain.ChainDescriptor
	tunables config.Tunables
	deps     Deps
	log      *slog.Logger
	connect  Connector

	state    atomic.Int32
	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	ctx    context.Context
	source BlockSource
	pace   *pacer
	cursor atomic.Uint64

	endpoint string

	// OnVerified and OnAlreadyVerified are invoked after the corresponding
	// pipeline outcome; the supervisor wires them to its outward signals.
	OnVerified        func(events.Payload)
	OnAlreadyVerified func(events.Payload)
}

// NewChainMonitor builds a monitor for one chain descriptor.
func NewChainMonitor(chain domain.ChainDescriptor, tunables config.Tunables, deps Deps, log *slog.Logger) *ChainMonitor {
	m := &ChainMonitor{
		chain:    chain,
		tunables: tunables,
		deps:     deps,
		log:      log.With("chain", chain.Name),
		connect:  DialSource(tunables.ProviderTimeout),
		stopCh:   make(chan struct{}),
		pace: newPacer(tunables.GetBlockPause, tunables.BlockPauseFactor,
			tunables.BlockPauseLowerLimit, tunables.BlockPauseUpperLimit),
	}
	m.state.Store(int32(StateIdle))
	return m
}

// Start probes the chain's endpoints in order and begins the block loop from
// the configured start block or the probed head. When every endpoint fails
// the monitor emits Monitor.Error.CantStart and returns to idle.
func (m *ChainMonitor) Start(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return fmt.Errorf("monitor %s: not idle", m.chain.Name)
	}
	m.ctx = ctx

	for _, endpoint := range m.chain.RPCs {
		src, err := m.connect(ctx, m.chain, endpoint)
		if err != nil {
			m.log.Warn("endpoint unreachable", "endpoint", endpoint, "error", err)
			continue
		}
		head, err := src.GetBlockNumber(ctx)
		if err != nil {
			m.log.Warn("endpoint probe failed", "endpoint", endpoint, "error", err)
			src.Close()
			continue
		}

		startBlock := head
		if override, ok := config.StartBlock(m.chain.ChainID); ok {
			startBlock = override
		}

		m.source = src
		m.endpoint = endpoint
		m.cursor.Store(startBlock)
		m.running.Store(true)
		m.state.Store(int32(StateRunning))

		m.deps.Bus.Trigger(events.MonitorStarted, events.Payload{
			"chainId":    m.chain.ChainID,
			"chain":      m.chain.Name,
			"startBlock": startBlock,
		})
		m.log.Info("monitor started", "endpoint", endpoint, "startBlock", startBlock)

		m.schedule(0, m.processBlock)
		return nil
	}

	m.state.Store(int32(StateIdle))
	m.deps.Bus.Trigger(events.ErrCantStart, events.Payload{
		"chainId": m.chain.ChainID,
		"chain":   m.chain.Name,
	})
	return fmt.Errorf("monitor %s: %w", m.chain.Name, ErrCantStart)
}

// Stop halts the block loop and all scheduled work. Safe to call more than
// once; timers armed before the stop become no-ops.
func (m *ChainMonitor) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	m.state.Store(int32(StateStopping))
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	if m.source != nil {
		m.source.Close()
	}
	m.state.Store(int32(StateStopped))
	m.deps.Bus.Trigger(events.MonitorStopped, events.Payload{
		"chainId": m.chain.ChainID,
		"chain":   m.chain.Name,
	})
	m.log.Info("monitor stopped")
}

// State returns the current lifecycle state.
func (m *ChainMonitor) State() State {
	return State(m.state.Load())
}

// schedule runs fn after the delay unless the monitor stops first. The
// running flag is re-checked after the timer fires so nothing executes past
// an observed stop.
func (m *ChainMonitor) schedule(delay time.Duration, fn func()) {
	if !m.running.Load() {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-m.stopCh:
			return
		case <-m.ctx.Done():
			return
		case <-timer.C:
		}
		if !m.running.Load() {
			return
		}
		fn()
	}()
}

// processBlock fetches the block at the cursor, scans it for contract
// creations, adapts the pause and reschedules itself. The cursor advances
// only after a block was fully processed.
func (m *ChainMonitor) processBlock() {
	number := m.cursor.Load()

	block, err := m.source.GetBlock(m.ctx, number)
	switch {
	case err != nil:
		m.deps.Bus.Trigger(events.ErrProcessingBlock, events.Payload{
			"chainId": m.chain.ChainID,
			"chain":   m.chain.Name,
			"block":   number,
			"error":   err.Error(),
		})
		m.log.Warn("block fetch failed", "block", number, "error", err)

	case block == nil:
		// Head caught up; back off.
		m.pace.Increase()

	default:
		m.pace.Decrease()
		m.deps.Bus.Trigger(events.MonitorProcessingBlock, events.Payload{
			"chainId": m.chain.ChainID,
			"chain":   m.chain.Name,
			"block":   number,
			"txs":     len(block.Transactions),
		})
		metrics.BlocksProcessed.WithLabelValues(m.chain.Name).Inc()
		metrics.MonitorHeadBlock.WithLabelValues(m.chain.Name).Set(float64(number))

		for _, tx := range block.Transactions {
			if tx.CreatesContract() {
				m.handleCreation(tx)
			}
		}
		m.cursor.Store(number + 1)
	}

	pause := m.pace.Current()
	metrics.BlockPauseMillis.WithLabelValues(m.chain.Name).Set(float64(pause.Milliseconds()))
	m.schedule(pause, m.processBlock)
}

// handleCreation checks the repository for the deployed address and either
// short-circuits or opens a bytecode task.
func (m *ChainMonitor) handleCreation(tx *domain.Transaction) {
	addr := tx.DeployedAddress()
	metrics.ContractsDetected.WithLabelValues(m.chain.Name).Inc()

	matches, err := m.deps.Repository.CheckByChainAndAddress(m.ctx, m.chain.ChainID, addr)
	if err != nil {
		// Treat a repository hiccup as unknown and verify anyway.
		m.log.Warn("repository check failed", "address", addr.Hex(), "error", err)
	}
	if len(matches) > 0 {
		payload := events.Payload{
			"chainId": m.chain.ChainID,
			"chain":   m.chain.Name,
			"address": addr.Hex(),
		}
		m.deps.Bus.Trigger(events.MonitorAlreadyVerified, payload)
		if m.OnAlreadyVerified != nil {
			m.OnAlreadyVerified(payload)
		}
		return
	}

	m.deps.Bus.Trigger(events.MonitorNewContract, events.Payload{
		"chainId": m.chain.ChainID,
		"chain":   m.chain.Name,
		"address": addr.Hex(),
		"tx":      tx.Hash.Hex(),
	})

	task := &bytecodeTask{
		address:     addr,
		txHash:      tx.Hash,
		retriesLeft: m.tunables.InitialGetBytecodeTries,
	}
	m.scheduleBytecode(0, task)
}

func (m *ChainMonitor) scheduleBytecode(delay time.Duration, t *bytecodeTask) {
	metrics.InFlightBytecodeTasks.WithLabelValues(m.chain.Name).Inc()
	m.schedule(delay, func() {
		defer metrics.InFlightBytecodeTasks.WithLabelValues(m.chain.Name).Dec()
		m.processBytecode(t)
	})
}

// processBytecode attempts one bytecode fetch for the task. Empty code and
// transport errors reschedule until the retry budget is spent; an undecodable
// trailer drops the task.
func (m *ChainMonitor) processBytecode(t *bytecodeTask) {
	t.retriesLeft--
	if t.retriesLeft < 0 {
		m.log.Debug("bytecode retries exhausted", "address", t.address.Hex())
		return
	}

	code, err := m.source.GetCode(m.ctx, t.address)
	if err != nil {
		m.deps.Bus.Trigger(events.ErrGettingBytecode, events.Payload{
			"chainId": m.chain.ChainID,
			"chain":   m.chain.Name,
			"address": t.address.Hex(),
			"error":   err.Error(),
		})
		metrics.BytecodeRetries.WithLabelValues(m.chain.Name).Inc()
		m.scheduleBytecode(m.tunables.GetBytecodeRetryPause, t)
		return
	}
	if len(code) == 0 {
		// Node has not caught up with the deployment yet.
		metrics.BytecodeRetries.WithLabelValues(m.chain.Name).Inc()
		m.scheduleBytecode(m.tunables.GetBytecodeRetryPause, t)
		return
	}

	trailer, err := metadata.Decode(code)
	var src *metadata.SourceAddress
	if err == nil {
		src, err = trailer.SourceAddress()
	}
	if err != nil {
		m.deps.Bus.Trigger(events.ErrProcessingBytecode, events.Payload{
			"chainId": m.chain.ChainID,
			"chain":   m.chain.Name,
			"address": t.address.Hex(),
			"error":   err.Error(),
		})
		return
	}

	m.deps.Fetcher.Assemble(src, func(contract *verification.CheckedContract, err error) {
		if !m.running.Load() {
			return
		}
		if err != nil {
			m.deps.Bus.Trigger(events.ErrVerify, events.Payload{
				"chainId": m.chain.ChainID,
				"chain":   m.chain.Name,
				"address": t.address.Hex(),
				"error":   err.Error(),
			})
			return
		}
		m.verifyAndStore(t, contract)
	})
}

// verifyAndStore runs the verification service and persists the match. Any
// failure drops the contract with a VerifyError event.
func (m *ChainMonitor) verifyAndStore(t *bytecodeTask, contract *verification.CheckedContract) {
	match, err := m.deps.Verifier.VerifyDeployed(m.ctx, contract, m.chain.ChainID, t.address, t.txHash)
	if err == nil {
		err = m.deps.Repository.StoreMatch(m.ctx, contract, match)
	}
	if err != nil {
		m.deps.Bus.Trigger(events.ErrVerify, events.Payload{
			"chainId": m.chain.ChainID,
			"chain":   m.chain.Name,
			"address": t.address.Hex(),
			"error":   err.Error(),
		})
		return
	}

	metrics.ContractsVerified.WithLabelValues(m.chain.Name).Inc()
	payload := events.Payload{
		"chainId": m.chain.ChainID,
		"chain":   m.chain.Name,
		"address": t.address.Hex(),
		"status":  string(match.Status),
	}
	if m.OnVerified != nil {
		m.OnVerified(payload)
	}
	m.log.Info("contract verified", "address", t.address.Hex(), "status", match.Status)
}

// bytecodeTask tracks one deployed address through the bytecode retry
// machine.
type bytecodeTask struct {
	address     common.Address
	txHash      common.Hash
	retriesLeft int
}
