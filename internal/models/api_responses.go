package models

import "time"

// APIResponse is the response envelope every dispatcher operation is
// marshaled into at the transport boundary.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response-level observability fields, independent of the
// operation's own result shape.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

// APIError is the wire shape of a ServiceError: a stable code plus a
// human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
