package observe

import "time"

// Record is a transport-agnostic audit record for one invocation.
type Record struct {
	RequestID  string        `json:"request_id"`
	Principal  string        `json:"principal"`
	Action     string        `json:"action"`
	Resource   string        `json:"resource"`
	ResourceID string        `json:"resource_id,omitempty"`
	IP         string        `json:"ip,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Duration   time.Duration `json:"duration"`
	Status     int           `json:"status"`
	Success    bool          `json:"success"`
	ErrorCode  string        `json:"error_code,omitempty"`
}
