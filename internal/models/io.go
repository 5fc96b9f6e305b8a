// Package models provides the core data structures for handling webhook requests and responses.
package models

// Request represents an incoming webhook request containing a body, its headers and the
// absolute URL the caller posted to. Header keys are lower-case.
type Request struct {
	Body    string
	Headers map[string]string
	URL     string
}

// Response defines the structure for an HTTP response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}
