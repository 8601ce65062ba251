package service

// Outcome classifies the result of a side effect explicitly, instead of
// relying on error interception at each call site. Fatal effects propagate
// their error; absorbed ones are logged and recorded but never alter the
// success path.
type Outcome int

const (
	// OutcomeOK: the side effect succeeded.
	OutcomeOK Outcome = iota
	// OutcomeAbsorbed: the side effect failed but the failure was swallowed
	// (cache writes, index writes with a ledger fallback).
	OutcomeAbsorbed
	// OutcomeFatal: the side effect failed and the operation must fail with it
	// (metadata persistence).
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAbsorbed:
		return "absorbed"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
