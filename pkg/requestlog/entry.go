package requestlog

import "time"

// Entry records one request handled by a mounted route.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	Method string `json:"method"`
	Path   string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Route is the matched route as "METHOD PATTERN".
	Route string `json:"route"`

	// Source is the definition file the route came from.
	Source string `json:"source,omitempty"`

	// Generation is the reload that mounted the route.
	Generation string `json:"generation,omitempty"`

	// Status is the status code sent, 0 when the client went away first.
	Status int `json:"status"`

	// Bytes is the size of the response body.
	Bytes int `json:"bytes"`

	// DurationMs covers dispatch until the response was finalized, delays
	// included.
	DurationMs int64 `json:"durationMs"`

	// Error contains the error message if the request failed.
	Error string `json:"error,omitempty"`
}
