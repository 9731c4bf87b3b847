package httpdto

import "time"

// AppendEventRequest is the producer-facing draft. The producer is
// responsible for validating the data payload against the schema for its
// type before calling; the core only checks what handlers need.
type AppendEventRequest struct {
	ID          string                 `json:"id"`
	Timestamp   *time.Time             `json:"timestamp"`
	Type        string                 `json:"type" binding:"required"`
	Author      string                 `json:"author"`
	Witness     string                 `json:"witness"`
	Channel     string                 `json:"channel"`
	Origin      string                 `json:"origin"`
	Data        map[string]interface{} `json:"data"`
	Consequence *ConsequenceRequest    `json:"consequence"`
	Meta        map[string]interface{} `json:"meta"`
}

// ConsequenceRequest opens a deferred-obligation slot on the event.
type ConsequenceRequest struct {
	Type    string                 `json:"type" binding:"required"`
	Details map[string]interface{} `json:"details"`
}

// QueryEventsResponse pages a timeline read.
type QueryEventsResponse[T any] struct {
	Events []T   `json:"events"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
