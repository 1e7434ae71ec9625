// Package events provides the process-wide event bus the monitors publish to.
package events

// Monitor lifecycle and processing events.
const (
	MonitorStarted         = "Monitor.Started"
	MonitorStopped         = "Monitor.Stopped"
	MonitorProcessingBlock = "Monitor.ProcessingBlock"
	MonitorNewContract     = "Monitor.NewContract"
	MonitorAlreadyVerified = "Monitor.AlreadyVerified"

	ErrCantStart          = "Monitor.Error.CantStart"
	ErrProcessingBlock    = "Monitor.Error.ProcessingBlock"
	ErrProcessingBytecode = "Monitor.Error.ProcessingBytecode"
	ErrGettingBytecode    = "Monitor.Error.GettingBytecode"
	ErrVerify             = "Monitor.Error.VerifyError"
)

// Signals re-emitted by the supervisor for downstream consumers.
const (
	ContractVerified        = "contract-verified-successfully"
	ContractAlreadyVerified = "contract-already-verified"
)
