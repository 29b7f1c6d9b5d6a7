package models

import "fmt"

// AuthenticationError is returned when the session cookie could not be obtained.
// StatusCode is 0 when the request never got a response.
type AuthenticationError struct {
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// FetchError is returned when a page or listings batch request fails.
// Batch is -1 for requests that are not part of a batched fetch.
type FetchError struct {
	StatusCode int
	Batch      int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	where := e.URL
	if e.Batch >= 0 {
		where = fmt.Sprintf("batch %d", e.Batch)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed: %v", where, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: status %d", where, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is returned when a response body is malformed or a required
// field is missing.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse: missing field %s", e.Field)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadError is returned when writing a table fails. The transaction has been
// rolled back by the time the caller sees it.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
