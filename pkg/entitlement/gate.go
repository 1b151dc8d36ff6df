package entitlement

import (
	"context"
	"log/slog"

	"github.com/mediscan/quotakit/pkg/logger"
)

// State names one step of the gating pipeline. The sequence a run took is
// recorded on its Result so tests and logs can assert the exact path.
type State string

const (
	StateResolving        State = "resolving"
	StateEvaluating       State = "evaluating"
	StatePermitted        State = "permitted"
	StateExecuting        State = "executing"
	StateAccounting       State = "accounting"
	StateDenied           State = "denied"
	StateResolutionFailed State = "resolution_failed"
	StateFailOpen         State = "fail_open"
	StateDone             State = "done"
)

// Operation is the protected work the gate wraps. The gate never inspects
// its internals beyond the classifier it is given for the feature.
type Operation[T any] func(ctx context.Context) (T, error)

// Classifier maps an operation result onto the counter it debits. A nil
// classifier means the feature has a single outcome class and every
// completed operation counts as recognized.
type Classifier[T any] func(T) Outcome

// Result carries the gate's decision, the operation's value when it ran,
// and the path the run took through the state machine.
type Result[T any] struct {
	Decision Decision
	Value    T
	Outcome  Outcome
	Usage    Counter
	// FailOpen marks runs where resolution failed and the operation was
	// allowed to proceed without an evaluation.
	FailOpen bool
	// AccountingError is set when the usage write failed after the
	// operation already executed. The value is still valid.
	AccountingError error
	States          []State
}

// Gate composes resolve, evaluate, execute, and account around a protected
// operation.
//
// Policy baked in here: a resolution failure fails open (the operation runs,
// the failure is logged, the user is never blocked by an infrastructure
// hiccup), a deny short-circuits before the operation, and an accounting
// failure never reverts an operation that already produced a result.
type Gate struct {
	resolver   *Resolver
	accountant *Accountant
	log        *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger for fail-open and accounting events.
func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGate creates a Gate. Both collaborators are required.
func NewGate(resolver *Resolver, accountant *Accountant, opts ...GateOption) *Gate {
	if resolver == nil {
		panic("entitlement: Resolver is required")
	}
	if accountant == nil {
		panic("entitlement: Accountant is required")
	}

	g := &Gate{resolver: resolver, accountant: accountant, log: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run executes one gated operation for the principal and feature.
//
// The returned error is non-nil only when the operation itself failed or no
// principal was supplied; a quota denial is a business outcome reported via
// Result.Decision, not an error.
func Run[T any](ctx context.Context, g *Gate, p Principal, feature FeatureKey, op Operation[T], classify Classifier[T]) (Result[T], error) {
	res := Result[T]{States: []State{StateResolving}}

	snap, rerr := g.resolver.Resolve(ctx, p)
	if rerr != nil && snap == nil {
		return res, rerr
	}

	if rerr != nil {
		// Fail open: never block the user on an infrastructure hiccup, at
		// the cost of a possible quota overrun.
		res.FailOpen = true
		res.States = append(res.States, StateResolutionFailed, StateFailOpen)
		g.log.ErrorContext(ctx, "entitlement resolution failed, proceeding fail-open",
			logger.Principal(p.String()),
			logger.Feature(feature),
			logger.Error(rerr))
		res.Decision = permit(feature)
	} else {
		res.States = append(res.States, StateEvaluating)
		res.Decision = Permits(snap, feature, 1)
		if !res.Decision.Permitted {
			res.States = append(res.States, StateDenied, StateDone)
			return res, nil
		}
		res.States = append(res.States, StatePermitted)
	}

	res.States = append(res.States, StateExecuting)
	value, err := op(ctx)
	if err != nil {
		// The operation never completed, so nothing is accounted.
		return res, err
	}
	res.Value = value

	res.Outcome = OutcomeRecognized
	if classify != nil {
		res.Outcome = classify(value)
	}

	// A cancelled operation must not reach accounting.
	if ctx.Err() != nil {
		res.States = append(res.States, StateDone)
		return res, ctx.Err()
	}

	res.States = append(res.States, StateAccounting)
	usage, aerr := g.accountant.Account(ctx, p, feature, res.Outcome)
	if aerr != nil {
		// The result stands; accounting lags and is logged, never retried
		// against the user-visible latency budget.
		res.AccountingError = aerr
		g.log.ErrorContext(ctx, "usage accounting failed",
			logger.Principal(p.String()),
			logger.Feature(feature),
			logger.Outcome(res.Outcome),
			logger.Error(aerr))
	} else {
		res.Usage = usage
	}

	res.States = append(res.States, StateDone)
	return res, nil
}
