// Package models provides data structures for the media upload gateway
package models

import (
	"fmt"
	"time"
)

// Outcome status values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Outcome is the per-file result of forwarding one upload to the remote provider.
// Exactly one of the success fields (RemoteID, Link, ...) or the failure fields
// (Error, ProviderDetails) is populated, selected by Status.
type Outcome struct {
	Filename        string     `json:"filename"`
	Status          string     `json:"status"`
	RemoteID        string     `json:"remoteId,omitempty"`
	Link            string     `json:"link,omitempty"`
	Size            int64      `json:"size,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	Error           string     `json:"error,omitempty"`
	ProviderDetails string     `json:"providerDetails,omitempty"`
}

// Failed builds a failure outcome for the given file. providerDetails carries the raw
// provider error payload when one is available and may be empty.
func Failed(filename, message, providerDetails string) Outcome {
	return Outcome{
		Filename:        filename,
		Status:          StatusFailed,
		Error:           message,
		ProviderDetails: providerDetails,
	}
}

// OK reports whether the outcome is a success
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// BatchResult aggregates the outcomes of one upload request. Outcomes holds one entry
// per submitted file, in submission order.
type BatchResult struct {
	Outcomes     []Outcome `json:"results"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
}

// Summary returns a human-readable description of the batch result
func (b BatchResult) Summary() string {
	if b.FailureCount == 0 {
		return fmt.Sprintf("%d files uploaded successfully", b.SuccessCount)
	}
	return fmt.Sprintf("%d files uploaded successfully, %d failed", b.SuccessCount, b.FailureCount)
}

// APIResponse is a generic API response structure
type APIResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	Results []Outcome `json:"results,omitempty"`
}

// HealthStatus is the response body of the health check endpoint
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}
