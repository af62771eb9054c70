package meteo

import "fmt"

// UnavailableError reports that the upstream weather service could not be
// reached or refused the request: network failures, timeouts and
// non-success status codes all map here.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("weather service unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// InvalidResponseError reports that the upstream payload was received but
// is malformed: missing required fields, unparseable timestamps, or
// mismatched lengths across the parallel per-hour arrays.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid weather service response: %s", e.Reason)
}
