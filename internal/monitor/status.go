package monitor

import "time"

// Status is a point-in-time snapshot of a monitor, served by the health
// endpoint.
type Status struct {
	ChainID      uint64        `json:"chain_id"`
	Chain        string        `json:"chain"`
	State        string        `json:"state"`
	CurrentBlock uint64        `json:"current_block"`
	BlockPause   time.Duration `json:"block_pause_ms"`
	Endpoint     string        `json:"endpoint,omitempty"`
}

// Status reports the monitor's current snapshot.
func (m *ChainMonitor) Status() Status {
	return Status{
		ChainID:      m.chain.ChainID,
		Chain:        m.chain.Name,
		State:        m.State().String(),
		CurrentBlock: m.cursor.Load(),
		BlockPause:   m.pace.Current() / time.Millisecond,
		Endpoint:     m.endpoint,
	}
}
