// Package metrics defines the Prometheus instruments for the monitoring
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksProcessed counts blocks scanned per chain.
	BlocksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_blocks_processed_total",
		Help: "Total number of blocks processed",
	}, []string{"chain"})

	// BlockPauseMillis is the current adaptive pause between block fetches.
	BlockPauseMillis = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "contractwatch_block_pause_millis",
		Help: "Current adaptive block pause in milliseconds",
	}, []string{"chain"})

	// MonitorHeadBlock is the monitor's current block cursor.
	MonitorHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "contractwatch_head_block",
		Help: "Current block cursor of the monitor",
	}, []string{"chain"})

	// ContractsDetected counts contract creations seen per chain.
	ContractsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_contracts_detected_total",
		Help: "Total contract creation transactions detected",
	}, []string{"chain"})

	// ContractsVerified counts successful verify-and-store completions.
	ContractsVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_contracts_verified_total",
		Help: "Total contracts verified and stored",
	}, []string{"chain"})

	// BytecodeRetries counts rescheduled bytecode fetch attempts.
	BytecodeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_bytecode_retries_total",
		Help: "Total bytecode fetch retries",
	}, []string{"chain"})

	// InFlightBytecodeTasks tracks live bytecode task timers.
	InFlightBytecodeTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "contractwatch_inflight_bytecode_tasks",
		Help: "Number of bytecode tasks currently scheduled",
	}, []string{"chain"})

	// RPCCallsTotal counts JSON-RPC calls by provider and method.
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_rpc_calls_total",
		Help: "Total JSON-RPC calls made",
	}, []string{"provider", "method"})

	// RPCErrorsTotal counts failed JSON-RPC calls.
	RPCErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractwatch_rpc_errors_total",
		Help: "Total JSON-RPC call failures",
	}, []string{"provider", "method"})

	// RPCLatency observes JSON-RPC call latency in seconds.
	RPCLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contractwatch_rpc_latency_seconds",
		Help:    "JSON-RPC call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "method"})
)
