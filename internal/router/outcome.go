package router

// Outcome is a handler's explicit verdict on a request.
type Outcome uint8

const (
	// NotProductive hands the request to the next candidate.
	NotProductive Outcome = iota
	// Productive stops the fallback loop.
	Productive
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == Productive {
		return "productive"
	}
	return "not_productive"
}

// Status is the terminal state of a dispatch.
type Status uint8

const (
	// NotFound means no candidate was productive.
	NotFound Status = iota
	// Resolved means exactly one candidate was productive.
	Resolved
)

// String returns the status name.
func (s Status) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "not_found"
}
