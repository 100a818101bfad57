package influx

import "fmt"

// ConnectionError reports a failed liveness check during Connect.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection failed: %s: %s", e.Message, e.Err)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError wraps any backend execution failure. The underlying message is
// always carried, never swallowed.
type QueryError struct {
	Query   string
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query failed: %s", e.Err)
	}
	return fmt.Sprintf("query failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ValidationError reports an invalid request shape supplied by the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnsafeOperationError reports a write/delete/admin call attempted while the
// allow-write gate is closed. It is raised before any backend interaction.
type UnsafeOperationError struct {
	Op string
}

func (e *UnsafeOperationError) Error() string {
	return fmt.Sprintf("%s blocked: set INFLUXDB_ALLOW_WRITE=true or allow_write in config", e.Op)
}

// UnsupportedOperationError reports an operation not available for the active
// backend version, or one deliberately disabled.
type UnsupportedOperationError struct {
	Op      string
	Message string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s not supported: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s not supported", e.Op)
}

// ConfigError reports a construction-time configuration failure, distinct
// from call-time errors.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// WrapQueryError wraps a backend driver error so backend-specific error types
// never leak across the module boundary. A nil err stays nil.
func WrapQueryError(query string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Query: query, Err: err}
}
