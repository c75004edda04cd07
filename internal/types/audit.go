package types

import (
	"encoding/json"
	"time"
)

// AuditRecord is the durable trace of one orchestrated flow invocation.
type AuditRecord struct {
	ID              string
	TenantID        string
	FlowName        string
	RequestPayload  json.RawMessage
	ResponsePayload json.RawMessage
	Success         bool
	CreatedAt       time.Time
}
