// Package engine defines the asynchronous SQL engine the query path runs
// against: submit a query, poll its status, page through results.
package engine

import "context"

type State string

const (
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Status is one observation of a submitted execution. Reason carries the
// engine-supplied failure reason verbatim for terminal failure states.
type Status struct {
	State  State
	Reason string
}

// Page is one page of results. The first row of the first page is a header
// row of column names; NextToken is empty on the last page.
type Page struct {
	Columns   []string
	Rows      [][]string
	NextToken string
}

type Engine interface {
	Submit(ctx context.Context, sql string) (string, error)
	Status(ctx context.Context, executionID string) (Status, error)
	FetchPage(ctx context.Context, executionID, token string) (Page, error)
}
