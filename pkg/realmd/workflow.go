package realmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/realmctl/internal/clock"
	"github.com/marmos91/realmctl/internal/logger"
	"github.com/marmos91/realmctl/internal/telemetry"
	"github.com/marmos91/realmctl/pkg/bus"
	"github.com/marmos91/realmctl/pkg/metrics"
)

// State is a step of a join or leave run.
type State int

const (
	StateInit State = iota
	StateDiscovering
	StateRealmSelected
	StateCredentialAcquisition
	StateEnrolling
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDiscovering:
		return "discovering"
	case StateRealmSelected:
		return "realm-selected"
	case StateCredentialAcquisition:
		return "credential-acquisition"
	case StateEnrolling:
		return "enrolling"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether a run ends in s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// Outcome is how a run ended.
type Outcome struct {
	State     State
	Action    Action
	Realm     RealmRef
	RealmName string
	Principal string
	// Err is set when State is StateFailed.
	Err error
}

// Kind classifies the failure, KindNone for success and KindUserCancelled
// for a declined prompt.
func (o *Outcome) Kind() Kind {
	if o.State == StateCancelled {
		return KindUserCancelled
	}
	return Classify(o.Err)
}

// ExitStatus maps the outcome to a process exit status: 0 for success and
// user cancellation, 1 for every failure.
func (o *Outcome) ExitStatus() int {
	switch o.State {
	case StateDone, StateCancelled:
		return 0
	default:
		return 1
	}
}

// Message is the line reported to the user, empty for a cancelled run.
func (o *Outcome) Message() string {
	switch o.State {
	case StateDone:
		return fmt.Sprintf("%s domain: %s", o.Action.PastTense(), o.RealmName)
	case StateFailed:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "failed"
	default:
		return ""
	}
}

// Request describes one join or leave run.
type Request struct {
	Action Action
	// Input is the discovery string. Empty selects the default domain.
	Input string
	// User is the login to authenticate as. Empty prompts for it.
	User    string
	Options Options
	// Diagnostics, when set, receives the progress text of each call.
	Diagnostics func(DiagnosticChunk)
	// CancelAfter, when positive, asks the service to cancel whatever
	// call is outstanding once it elapses.
	CancelAfter time.Duration
}

// Workflow runs discovery, credential acquisition and the membership call
// in sequence. One Workflow runs one Request at a time.
type Workflow struct {
	Conn     bus.Conn
	Acquirer Acquirer
	// Prompter asks for the user name when the request has none.
	Prompter Prompter
	// Clock drives the cancellation timer. Nil means the real clock.
	Clock clock.Clock
	// Timeout bounds each call. Zero means DefaultCallTimeout.
	Timeout time.Duration
	Metrics metrics.RealmMetrics
	// NewID generates operation ids. Nil means NewOperationID.
	NewID func() OperationID

	mu        sync.Mutex
	canceller *Canceller
}

// Cancel asks the service to abort the outstanding call of the current
// run. The call still completes, with a cancellation error. It is safe to
// call from a signal handler goroutine and is a no-op between runs.
func (w *Workflow) Cancel() bool {
	w.mu.Lock()
	c := w.canceller
	w.mu.Unlock()
	if c == nil || c.Current() == "" {
		return false
	}
	c.CancelNow()
	return true
}

// Run executes req and returns its terminal outcome. It never exits the
// process.
func (w *Workflow) Run(ctx context.Context, req Request) *Outcome {
	r := &run{w: w, req: req, out: &Outcome{State: StateInit, Action: req.Action}}

	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanWorkflow, "",
		telemetry.Action(req.Action.String()), telemetry.Input(req.Input))
	defer span.End()

	lc := logger.NewLogContext(req.Action.String())
	if tid := telemetry.TraceID(ctx); tid != "" {
		lc = lc.WithTrace(tid, telemetry.SpanID(ctx))
	}
	ctx = logger.WithContext(ctx, lc)

	r.canceller = NewCanceller(w.Conn, w.Clock)
	r.canceller.metrics = w.Metrics
	w.mu.Lock()
	w.canceller = r.canceller
	w.mu.Unlock()

	defer func() {
		r.canceller.Stop()
		w.mu.Lock()
		w.canceller = nil
		w.mu.Unlock()
		r.closeDiagnostics()
	}()

	if err := r.canceller.Arm(req.CancelAfter); err != nil {
		return r.fail(ctx, err)
	}

	out := r.execute(ctx)

	span.SetAttributes(telemetry.Outcome(out.State.String()))
	if out.State == StateFailed {
		telemetry.RecordError(ctx, out.Err, out.Kind().String())
	}
	metrics.RecordOutcome(w.Metrics, req.Action.String(), out.State.String())

	logger.InfoCtx(ctx, "Run finished",
		logger.KeyState, out.State.String(), logger.KeyRealm, out.RealmName,
		logger.KeyDurationMs, lc.DurationMs(), logger.Err(out.Err))
	return out
}

// run is the mutable state of one Run.
type run struct {
	w         *Workflow
	req       Request
	out       *Outcome
	canceller *Canceller
	diags     []*DiagnosticsSubscription
}

func (r *run) execute(ctx context.Context) *Outcome {
	realm, err := r.discover(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}

	r.out.State = StateCredentialAcquisition
	cred, err := r.acquire(ctx)
	if errors.Is(err, ErrUserCancelled) {
		r.out.State = StateCancelled
		return r.out
	}
	if err != nil {
		return r.fail(ctx, err)
	}
	defer cred.Wipe()

	r.out.State = StateEnrolling
	if err := r.enroll(ctx, realm, cred); err != nil {
		return r.fail(ctx, err)
	}

	r.out.State = StateDone
	return r.out
}

func (r *run) discover(ctx context.Context) (RealmRef, error) {
	r.out.State = StateDiscovering
	id := r.begin(ctx, ServiceScope, "discover")
	method := ProviderInterface + ".Discover"

	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanDiscover, id.String(), telemetry.Input(r.req.Input))
	defer span.End()
	ctx = withOperation(ctx, id, method)

	start := time.Now()
	future := Discover(ctx, r.w.Conn, r.req.Input, id, r.w.Timeout)
	r.canceller.Dispatched(id)
	result, err := future.Wait(ctx)
	r.canceller.Release(id)
	r.observe(method, start, err)
	if err != nil {
		telemetry.RecordError(ctx, err, errorName(err))
		return RealmRef{}, err
	}

	span.SetAttributes(telemetry.Relevance(result.Relevance), telemetry.RealmCount(len(result.Realms)))
	realm, err := result.Default()
	if err != nil {
		return RealmRef{}, err
	}
	r.out.Realm = realm
	r.out.State = StateRealmSelected

	name, err := RealmName(ctx, r.w.Conn, realm)
	if err != nil {
		return RealmRef{}, err
	}
	r.out.RealmName = name
	span.SetAttributes(telemetry.Realm(name), telemetry.RealmPath(string(realm.Path)))

	logger.InfoCtx(ctx, "Realm discovered",
		logger.KeyRealm, name, logger.KeyRealmPath, realm.Path, logger.KeyRelevance, result.Relevance)
	return realm, nil
}

func (r *run) acquire(ctx context.Context) (Credential, error) {
	ctx, span := telemetry.StartRealmSpan(ctx, telemetry.SpanCredential, "")
	defer span.End()

	user := r.req.User
	if user == "" {
		if r.w.Prompter == nil {
			return nil, errors.New("no user given")
		}
		in, err := r.w.Prompter.Input("User")
		if err != nil {
			if errors.Is(err, ErrUserCancelled) {
				return nil, ErrUserCancelled
			}
			return nil, fmt.Errorf("failed to read user: %w", err)
		}
		user = strings.TrimSpace(in)
		if user == "" {
			return nil, ErrUserCancelled
		}
	}

	principal := NormalizePrincipal(user, r.out.RealmName)
	r.out.Principal = principal
	span.SetAttributes(telemetry.Principal(principal))

	cred, err := r.w.Acquirer.Acquire(ctx, principal)
	if err != nil {
		if !errors.Is(err, ErrUserCancelled) {
			telemetry.RecordError(ctx, err, Classify(err).String())
		}
		return nil, err
	}
	span.SetAttributes(telemetry.Credential(string(cred.Kind())))
	return cred, nil
}

func (r *run) enroll(ctx context.Context, realm RealmRef, cred Credential) error {
	id := r.begin(ctx, ScopeOf(realm), r.req.Action.String())
	method := Method(realm, r.req.Action, cred)

	spanName := telemetry.SpanEnroll
	if r.req.Action == ActionUnenroll {
		spanName = telemetry.SpanUnenroll
	}
	ctx, span := telemetry.StartRealmSpan(ctx, spanName, id.String(),
		telemetry.Method(method), telemetry.Realm(r.out.RealmName), telemetry.Credential(string(cred.Kind())))
	defer span.End()
	ctx = withOperation(ctx, id, method)

	exec := &Executor{Conn: r.w.Conn, Timeout: r.w.Timeout}
	start := time.Now()
	future := exec.Execute(ctx, r.req.Action, realm, cred, r.req.Options, id)
	r.canceller.Dispatched(id)
	_, err := future.Wait(ctx)
	r.canceller.Release(id)
	r.observe(method, start, err)
	if err != nil {
		telemetry.RecordError(ctx, err, errorName(err))
		return err
	}
	return nil
}

// begin allocates the operation id of the next call, attaches the
// diagnostics subscription for it and points the canceller at it. It
// runs before the call is sent.
func (r *run) begin(ctx context.Context, scope Scope, operation string) OperationID {
	newID := r.w.NewID
	if newID == nil {
		newID = NewOperationID
	}
	id := newID()

	if r.req.Diagnostics != nil {
		onChunk := r.req.Diagnostics
		sub, err := SubscribeDiagnostics(ctx, r.w.Conn, scope, id, func(c DiagnosticChunk) {
			metrics.RecordDiagnostic(r.w.Metrics, operation)
			onChunk(c)
		})
		if err != nil {
			logger.WarnCtx(ctx, "Diagnostics unavailable", logger.KeyOperationID, id, logger.KeyError, err)
		} else {
			r.diags = append(r.diags, sub)
		}
	}

	r.canceller.Track(id)
	return id
}

func (r *run) observe(method string, start time.Time, err error) {
	member := method[strings.LastIndexByte(method, '.')+1:]
	metrics.ObserveCall(r.w.Metrics, member, time.Since(start), errorName(err))
}

func (r *run) closeDiagnostics() {
	for _, d := range r.diags {
		d.Close()
	}
	r.diags = nil
}

func (r *run) fail(ctx context.Context, err error) *Outcome {
	logger.DebugCtx(ctx, "Run failed", logger.KeyState, r.out.State.String(), logger.KeyError, err)
	r.out.State = StateFailed
	r.out.Err = err
	return r.out
}

func withOperation(ctx context.Context, id OperationID, method string) context.Context {
	lc := logger.FromContext(ctx)
	if lc == nil {
		return ctx
	}
	return logger.WithContext(ctx, lc.WithOperation(id.String(), method))
}

// errorName labels err for metrics.
func errorName(err error) string {
	if err == nil {
		return ""
	}
	var re *bus.RemoteError
	if errors.As(err, &re) {
		return re.Name
	}
	var noMatch *NoMatchError
	if errors.As(err, &noMatch) {
		return "no-match"
	}
	return "transport"
}
