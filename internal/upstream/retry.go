package upstream

import (
	"context"
	"errors"
	"time"

	"classecho-go/internal/credential"
	"classecho-go/internal/monitoring"
	log "github.com/sirupsen/logrus"
)

// Operation describes one logical remote call. Call must classify its own
// result; it never rotates credentials itself.
type Operation[T any] struct {
	Name string
	// MaxRetries caps the number of remote calls. If <=0 the orchestrator
	// default applies, and failing that the pool size.
	MaxRetries int
	Call       func(ctx context.Context, cred credential.Credential) Outcome[T]
}

// Result carries the value of a successful operation and the credential
// that produced it.
type Result[T any] struct {
	Value           T
	CredentialIndex int
	Attempts        int
}

// Attempt is handed to the Recorder after every remote call.
type Attempt struct {
	Operation  string
	Credential credential.Credential
	Outcome    OutcomeKind
	Detail     string
	Duration   time.Duration
}

// Recorder observes attempts, e.g. for per-credential usage stats.
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt)
}

// Orchestrator drives operations against the shared credential cursor:
// rate limits rotate and retry, anything else aborts.
type Orchestrator struct {
	cursor     *credential.Cursor
	maxRetries int
	recorder   Recorder
}

// Options tunes an Orchestrator.
type Options struct {
	// MaxRetries is the default attempt cap; <=0 means pool size.
	MaxRetries int
	Recorder   Recorder
}

func NewOrchestrator(cursor *credential.Cursor, opts Options) *Orchestrator {
	return &Orchestrator{cursor: cursor, maxRetries: opts.MaxRetries, recorder: opts.Recorder}
}

func (o *Orchestrator) Cursor() *credential.Cursor { return o.cursor }

func (o *Orchestrator) attemptLimit(op int) int {
	switch {
	case op > 0:
		return op
	case o.maxRetries > 0:
		return o.maxRetries
	}
	if n := o.cursor.Pool().Len(); n > 0 {
		return n
	}
	return 1
}

// Execute runs op with at most MaxRetries remote calls. The cursor lock is
// only taken to read or advance the index, never across op.Call.
func Execute[T any](ctx context.Context, o *Orchestrator, op Operation[T]) (Result[T], error) {
	var zero Result[T]
	if op.Call == nil {
		return zero, &RemoteCallFailedError{Operation: op.Name, Err: errors.New("operation has no call")}
	}
	limit := o.attemptLimit(op.MaxRetries)

	for k := 0; ; k++ {
		cred := o.cursor.Current()
		if err := ctx.Err(); err != nil {
			return zero, &RemoteCallFailedError{
				Operation: op.Name, CredentialIndex: cred.Index, Detail: "request canceled", Err: err,
			}
		}

		start := time.Now()
		out := op.Call(ctx, cred)
		o.record(ctx, op.Name, cred, out.Kind, out.Detail, time.Since(start))

		entry := log.WithFields(log.Fields{
			"operation": op.Name,
			"attempt":   k + 1,
			"max":       limit,
			"key":       cred.Index + 1,
		})

		switch out.Kind {
		case OutcomeSuccess:
			if k > 0 {
				entry.Infof("%s succeeded with API key #%d", op.Name, cred.Index+1)
			}
			return Result[T]{Value: out.Value, CredentialIndex: cred.Index, Attempts: k + 1}, nil

		case OutcomeRateLimited:
			entry.Warnf("Rate limit hit on API key #%d", cred.Index+1)
			if k >= limit-1 {
				return zero, o.exhausted(op.Name, k+1, cred, out.Detail, out.Err)
			}
			if _, err := o.cursor.Advance(ctx, "rate_limited"); err != nil {
				return zero, o.exhausted(op.Name, k+1, cred, out.Detail, err)
			}

		default:
			entry.WithError(out.Err).Errorf("%s failed: %s", op.Name, out.Detail)
			return zero, &RemoteCallFailedError{
				Operation: op.Name, CredentialIndex: cred.Index, Detail: out.Detail, Err: out.Err,
			}
		}
	}
}

func (o *Orchestrator) exhausted(op string, attempts int, cred credential.Credential, detail string, err error) error {
	monitoring.OperationsExhaustedTotal.WithLabelValues(op).Inc()
	log.WithFields(log.Fields{"operation": op, "attempts": attempts}).Error("All API keys exhausted")
	return &AllCredentialsExhaustedError{
		Operation: op, Attempts: attempts, CredentialIndex: cred.Index, Detail: detail, Err: err,
	}
}

func (o *Orchestrator) record(ctx context.Context, op string, cred credential.Credential, kind OutcomeKind, detail string, d time.Duration) {
	monitoring.RecordAttempt(op, kind.String(), d)
	if o.recorder != nil {
		o.recorder.RecordAttempt(ctx, Attempt{
			Operation: op, Credential: cred, Outcome: kind, Detail: detail, Duration: d,
		})
	}
}
