// Package remote exposes a running brew session over a Unix socket so
// other pourover invocations can inspect and control it.
package remote

// Request represents a JSON-RPC request from a client.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// Response represents a JSON-RPC response to a client.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// Session status strings reported by StatusResponse.
const (
	StatusIdle     = "idle"
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusComplete = "complete"
)

// StatusResponse describes the live brew session.
type StatusResponse struct {
	Status             string  `json:"status"`
	MethodID           string  `json:"method_id,omitempty"`
	MethodName         string  `json:"method_name,omitempty"`
	BeanID             string  `json:"bean_id,omitempty"`
	CurrentStage       int     `json:"current_stage"`
	Waiting            bool    `json:"waiting"`
	CountdownRemaining *int    `json:"countdown_remaining,omitempty"`
	ElapsedSeconds     float64 `json:"elapsed_s"`
	Progress           float64 `json:"progress"`
	Uptime             string  `json:"uptime"`
	StartTime          string  `json:"start_time"`
}

// ResetParams contains parameters for the reset method.
type ResetParams struct {
	Reason string `json:"reason,omitempty"`
}

// JumpParams contains parameters for the jump method.
type JumpParams struct {
	Stage int `json:"stage"`
}
