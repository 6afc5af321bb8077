// Package proto defines the JSON wire shapes exchanged between wrangler and
// the remote orchestration server: the outbound heartbeat request and the
// server's response, including the nested callback/task sub-objects. Any
// field absent from an incoming JSON object is treated as its zero value
// (absent/empty), never as an error — the server's tasks object is
// partially typed by design.
package proto

// Shell status strings reported in ProcessOutput.Status.
const (
	StatusIdle       = "idle"
	StatusActive     = "active"
	StatusExecuting  = "executing"
	StatusTerminated = "terminated"
)

// StatusCodeOK is the only response.statusCode value that causes acks and
// tasks to be applied; any other value means "ignore acks and tasks, still
// record success/failure locally."
const StatusCodeOK = 1

// SystemInfo carries host telemetry. Each field is nil when the
// TelemetryProvider could not collect that category.
type SystemInfo struct {
	OS     interface{} `json:"os"`
	CPU    interface{} `json:"cpu"`
	Load   interface{} `json:"load"`
	Memory interface{} `json:"memory"`
	Disks  interface{} `json:"disks"`
}

// ProcessOutput is one managed shell's entry in the outbound heartbeat.
type ProcessOutput struct {
	PID               string `json:"PID"`
	Temp              string `json:"temp"`
	Cwd               string `json:"cwd"`
	IfCommandExecuted int    `json:"if_command_executed"`
	Status            string `json:"status"`
}

// OutboundCallback is the agent's at-least-once ack ledger snapshot.
type OutboundCallback struct {
	ProcessDeath   []string `json:"process_death"`
	ProcessCreated *string  `json:"process_created"`
}

// HeartbeatRequest is the full outbound POST body.
type HeartbeatRequest struct {
	CLIToken      string           `json:"cli_token"`
	SystemInfo    SystemInfo       `json:"system_info"`
	ProcessOutput []ProcessOutput  `json:"process_output"`
	Callback      OutboundCallback `json:"callback"`
}

// InboundCallback is the server's acknowledgement of what it has consumed.
type InboundCallback struct {
	CommandExecutedConfirmed   []string `json:"command_executed_confirmed"`
	ProcessOutputUpdateSucceed []string `json:"process_output_update_succeed"`
}

// Command is one entry in Tasks.Command: write this string into shell PID.
type Command struct {
	PID     string      `json:"PID"`
	Command interface{} `json:"command"`
}

// Tasks is the server's instruction batch for one heartbeat response. Every
// field is optional; a zero value means "no instruction of this kind."
type Tasks struct {
	ConfirmProcessDeath []string  `json:"confirm_process_death,omitempty"`
	IfRequireNewProcess int       `json:"if_require_new_process,omitempty"`
	Command             []Command `json:"command,omitempty"`
	KillProcess         []string  `json:"kill_process,omitempty"`
}

// HeartbeatResponse is the full decoded response body.
type HeartbeatResponse struct {
	StatusCode int             `json:"statusCode"`
	Callback   InboundCallback `json:"callback"`
	Tasks      Tasks           `json:"tasks"`
}

// InspectorSnapshot is the read-only status surface exposed locally.
type InspectorSnapshot struct {
	Status           string             `json:"status"`
	LastSent         int64              `json:"lastSent,omitempty"`
	LastLatencyMS    int64              `json:"lastLatencyMs,omitempty"`
	Response         *HeartbeatResponse `json:"response,omitempty"`
	Error            string             `json:"error,omitempty"`
	Processes        []ProcessOutput    `json:"processes"`
	PendingCallbacks OutboundCallback   `json:"pendingCallbacks"`
}
