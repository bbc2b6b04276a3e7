package ai

import "fmt"

// SchemaError reports a gateway response that could not be parsed into the
// agent's expected structured schema. It is distinct from TransportError so
// call sites can apply their own fatality policy per failure kind.
type SchemaError struct {
	Agent string
	Raw   string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: response does not match expected schema: %v", e.Agent, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// TransportError reports a failed gateway call (network, auth, quota).
type TransportError struct {
	Agent string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: gateway call failed: %v", e.Agent, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
