package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/authcore/internal/audit"
	"github.com/shelfwise/authcore/jwt"
	"github.com/shelfwise/authcore/password"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	store        AccountStore
	resetStore   *passwordResetStore
	audit        *audit.Dispatcher
	metrics      *Metrics
	passwordHash *password.Bcrypt
	jwtManager   *jwt.Manager
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

// Authenticate resolves a bearer token into the live principal behind it.
//
// An empty token fails with [ErrNoToken]. A token that does not verify,
// is expired, or carries no subject fails with [ErrTokenInvalid]. A token
// whose subject no longer exists in storage fails with
// [ErrSubjectNotFound]. Authentication never consults the token's role
// snapshot; roles always come from the stored identity.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if e == nil || e.store == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metricObserve(MetricAuthenticateLatency, time.Since(start))
	}()

	if token == "" {
		e.metricInc(MetricTokenRejected)
		e.emitAudit(ctx, auditEventTokenRejected, false, "", ErrNoToken, func() map[string]string {
			return map[string]string{
				"reason": "missing_token",
			}
		})
		return nil, ErrNoToken
	}

	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		e.emitAudit(ctx, auditEventTokenRejected, false, "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "verification_failed",
			}
		})
		return nil, ErrTokenInvalid
	}

	identity, err := e.store.FindByID(ctx, claims.Subject, false)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricSubjectVanished)
			e.emitAudit(ctx, auditEventSubjectVanished, false, claims.Subject, ErrSubjectNotFound, nil)
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	principal := principalOf(identity)
	return &principal, nil
}

// Authorize authenticates the token and then requires that the resolved
// principal holds at least one of the given roles. With no roles listed
// it degrades to plain authentication.
func (e *Engine) Authorize(ctx context.Context, token string, required ...Role) (*Principal, error) {
	principal, err := e.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if len(required) > 0 && !principal.HasRole(required...) {
		e.metricInc(MetricAccessDenied)
		e.emitAudit(ctx, auditEventAccessDenied, false, principal.ID, ErrInsufficientRole, func() map[string]string {
			return map[string]string{
				"required": rolesLabel(required),
			}
		})
		return nil, ErrInsufficientRole
	}

	return principal, nil
}

func (e *Engine) issueSession(identity *Identity) (*AuthResult, error) {
	token, expiresAt, err := e.jwtManager.Issue(identity.ID, RoleStrings(identity.Roles))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Identity:  principalOf(identity),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func rolesLabel(roles []Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += ","
		}
		out += string(r)
	}
	return out
}
