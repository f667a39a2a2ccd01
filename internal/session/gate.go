// Package session holds the sign-in gate: a small state machine that
// tracks whether an identity is established and fans identity changes
// out to watchers.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/yeojun7429/portfolio-api/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrSignInUnavailable is returned when a sign-in is started while one
	// is already running or an identity is already established.
	ErrSignInUnavailable = errors.New("sign-in not available in current state")

	// ErrNotSignedIn is returned when sign-out is requested without an
	// established identity.
	ErrNotSignedIn = errors.New("not signed in")
)

// State enumerates the gate's states.
type State int

const (
	// StateIdle means no identity is established and nothing is in flight.
	StateIdle State = iota
	// StateSigningIn means a sign-in attempt is running.
	StateSigningIn
	// StateSignedIn means an identity is established.
	StateSignedIn
	// StateFailed means the last sign-in attempt was rejected.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSigningIn:
		return "signing_in"
	case StateSignedIn:
		return "signed_in"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind enumerates the events the reducer understands.
type EventKind int

const (
	// EventSignInStarted marks the start of a sign-in attempt.
	EventSignInStarted EventKind = iota
	// EventSignInSucceeded carries the established identity and token.
	EventSignInSucceeded
	// EventSignInFailed carries the rejection message.
	EventSignInFailed
	// EventSignedOut discards the established identity.
	EventSignedOut
)

// Event drives a single reducer transition.
type Event struct {
	Kind     EventKind
	Identity *models.User
	Token    string
	Message  string
}

// Status is a snapshot of the gate.
type Status struct {
	State    State
	Identity *models.User
	Token    string
	// Message holds the rejection reason while State is StateFailed.
	Message string
}

// Reduce applies an event to a status and returns the next status. It is
// a pure function: events that are not legal in the current state leave
// the status unchanged.
func Reduce(s Status, e Event) Status {
	switch e.Kind {
	case EventSignInStarted:
		if s.State != StateIdle && s.State != StateFailed {
			return s
		}
		return Status{State: StateSigningIn}
	case EventSignInSucceeded:
		if s.State != StateSigningIn {
			return s
		}
		return Status{State: StateSignedIn, Identity: e.Identity, Token: e.Token}
	case EventSignInFailed:
		if s.State != StateSigningIn {
			return s
		}
		return Status{State: StateFailed, Message: e.Message}
	case EventSignedOut:
		if s.State != StateSignedIn {
			return s
		}
		return Status{State: StateIdle}
	default:
		return s
	}
}

// Provider performs the actual sign-in against an identity backend.
type Provider interface {
	// SignIn resolves credentials to an identity and a session token.
	SignIn(ctx context.Context, creds Credentials) (*models.User, string, error)
	// SignOut discards any provider-side session state.
	SignOut(ctx context.Context) error
}

// Gate wraps the reducer with a provider, a mutex, and identity watchers.
type Gate struct {
	provider Provider
	logger   *zap.Logger

	mu          sync.Mutex
	status      Status
	watchers    map[int]func(identity *models.User)
	nextWatcher int
}

// NewGate creates a gate in the idle state.
func NewGate(provider Provider, logger *zap.Logger) *Gate {
	return &Gate{
		provider: provider,
		logger:   logger,
		status:   Status{State: StateIdle},
		watchers: make(map[int]func(identity *models.User)),
	}
}

// Status returns a snapshot of the gate.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Watch registers a watcher that is called with the current identity
// immediately and again after every identity change (nil on sign-out).
// Watchers run with the gate's lock held and must not call back into the
// gate. The returned cancel function removes the watcher.
func (g *Gate) Watch(fn func(identity *models.User)) (cancel func()) {
	g.mu.Lock()
	id := g.nextWatcher
	g.nextWatcher++
	g.watchers[id] = fn
	fn(g.status.Identity)
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.watchers, id)
		g.mu.Unlock()
	}
}

// BeginSignIn runs a sign-in attempt through the provider. It is legal
// only from the idle and failed states; a second concurrent attempt is
// rejected with ErrSignInUnavailable. On success the gate moves to
// signed-in and watchers are notified with the new identity; on rejection
// it moves to failed and the provider's error is returned.
func (g *Gate) BeginSignIn(ctx context.Context, creds Credentials) error {
	g.mu.Lock()
	if g.status.State != StateIdle && g.status.State != StateFailed {
		g.mu.Unlock()
		return ErrSignInUnavailable
	}
	g.status = Reduce(g.status, Event{Kind: EventSignInStarted})
	g.mu.Unlock()

	identity, tokenString, err := g.provider.SignIn(ctx, creds)
	if err != nil {
		g.mu.Lock()
		g.status = Reduce(g.status, Event{Kind: EventSignInFailed, Message: err.Error()})
		g.mu.Unlock()
		g.logger.Info("sign_in_rejected", zap.Error(err))
		return err
	}

	g.mu.Lock()
	g.status = Reduce(g.status, Event{Kind: EventSignInSucceeded, Identity: identity, Token: tokenString})
	g.notifyLocked(identity)
	g.mu.Unlock()

	g.logger.Info("sign_in_succeeded", zap.String("user_id", identity.ID.String()))
	return nil
}

// EndSignIn discards the established identity. Watchers are notified
// with nil after the gate returns to idle.
func (g *Gate) EndSignIn(ctx context.Context) error {
	g.mu.Lock()
	if g.status.State != StateSignedIn {
		g.mu.Unlock()
		return ErrNotSignedIn
	}
	userID := g.status.Identity.ID
	g.mu.Unlock()

	if err := g.provider.SignOut(ctx); err != nil {
		g.logger.Warn("sign_out_provider_error", zap.Error(err))
	}

	g.mu.Lock()
	g.status = Reduce(g.status, Event{Kind: EventSignedOut})
	g.notifyLocked(nil)
	g.mu.Unlock()

	g.logger.Info("sign_out_completed", zap.String("user_id", userID.String()))
	return nil
}

func (g *Gate) notifyLocked(identity *models.User) {
	for _, fn := range g.watchers {
		fn(identity)
	}
}
