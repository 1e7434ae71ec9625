// Package control coordinates the per-chain monitors and their shared
// collaborators.
package control

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ndhoang/contractwatch/internal/core/config"
	"github.com/ndhoang/contractwatch/internal/core/domain"
	"github.com/ndhoang/contractwatch/internal/events"
	"github.com/ndhoang/contractwatch/internal/monitor"
)

// Supervisor owns one ChainMonitor per configured chain and the shared
// fetcher, verifier and repository. Monitors start concurrently; on stop the
// monitors go down first, then the fetcher.
type Supervisor struct {
	monitors []*monitor.ChainMonitor
	deps     monitor.Deps
	bus      *events.Bus
	log      *slog.Logger
}

// NewSupervisor builds monitors for the given chains, falling back to the
// default registry when none are given. The two outward signals are re-emitted
// on the bus as they arrive from monitors.
func NewSupervisor(chains []domain.ChainDescriptor, tunables config.Tunables, deps monitor.Deps, log *slog.Logger) *Supervisor {
	if len(chains) == 0 {
		chains = domain.DefaultChains
	}

	s := &Supervisor{
		deps: deps,
		bus:  deps.Bus,
		log:  log.With("component", "supervisor"),
	}

	for _, chain := range chains {
		m := monitor.NewChainMonitor(chain, tunables, deps, log)
		m.OnVerified = func(p events.Payload) {
			s.bus.Trigger(events.ContractVerified, p)
		}
		m.OnAlreadyVerified = func(p events.Payload) {
			s.bus.Trigger(events.ContractAlreadyVerified, p)
		}
		s.monitors = append(s.monitors, m)
	}
	return s
}

// Start brings every monitor up concurrently. A chain with no reachable
// endpoint is logged and skipped; Start only fails when no monitor at all
// could start.
func (s *Supervisor) Start(ctx context.Context) error {
	var g errgroup.Group

	started := make(chan struct{}, len(s.monitors))
	for _, m := range s.monitors {
		m := m
		g.Go(func() error {
			if err := m.Start(ctx); err != nil {
				s.log.Error("monitor failed to start", "error", err)
				return nil
			}
			started <- struct{}{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(started)

	if len(started) == 0 {
		return errors.New("no monitor could start")
	}
	s.log.Info("supervisor started", "monitors", len(started))
	return nil
}

// Stop halts all monitors, then the fetcher.
func (s *Supervisor) Stop() {
	for _, m := range s.monitors {
		m.Stop()
	}
	if s.deps.Fetcher != nil {
		s.deps.Fetcher.Stop()
	}
	s.log.Info("supervisor stopped")
}

// Statuses snapshots every monitor for the health endpoint.
func (s *Supervisor) Statuses() []monitor.Status {
	out := make([]monitor.Status, len(s.monitors))
	for i, m := range s.monitors {
		out[i] = m.Status()
	}
	return out
}
