package upstream

import "fmt"

// OutcomeKind classifies a single remote call attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRateLimited
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the tagged result of one attempt. Value is meaningful only for
// OutcomeSuccess; Detail and Err describe the failure otherwise.
type Outcome[T any] struct {
	Kind   OutcomeKind
	Value  T
	Detail string
	Err    error
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeSuccess, Value: v}
}

// RateLimited reports a quota condition attributable to the credential used.
func RateLimited[T any](detail string, err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeRateLimited, Detail: detail, Err: err}
}

// Fatal reports any failure that another credential would not fix.
func Fatal[T any](detail string, err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeFatal, Detail: detail, Err: err}
}
