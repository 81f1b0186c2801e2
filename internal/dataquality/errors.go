package dataquality

import "fmt"

// ConnectivityError indicates the database was unreachable before the
// run started. It aborts the whole run.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("database connectivity check failed: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// QueryError indicates a single check query failed. The run continues
// and the check is reported as WARNING.
type QueryError struct {
	Check string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("check %s query failed: %v", e.Check, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
