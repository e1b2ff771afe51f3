// Package contextkey defines the typed context keys shared between
// middleware and the logger.
package contextkey

// Key is the private type for context values set by this module.
type Key string

const (
	TraceID      Key = "trace_id"
	RequestID    Key = "request_id"
	JobID        Key = "job_id"
	SubmissionID Key = "submission_id"
)
