package authcore

import (
	"context"
	"errors"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if e == nil || e.store == nil || e.passwordHash == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	if err := ValidateCredentials(Credentials{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	}, e.config.Policy); err != nil {
		e.metricInc(MetricRegisterInvalid)
		e.emitAudit(ctx, auditEventRegisterInvalid, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": "validation_failed",
			}
		})
		return nil, err
	}

	email := NormalizeEmail(req.Email)
	roles := req.Roles
	if len(roles) == 0 {
		roles = DefaultRoles()
	}

	// Pre-check gives a clean duplicate error on the common path. The
	// store's own uniqueness guarantee still backstops concurrent races.
	if _, err := e.store.FindByEmail(ctx, email, false); err == nil {
		dup := &DuplicateKeyError{Field: "email", Value: email}
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", dup, func() map[string]string {
			return map[string]string{
				"email": email,
			}
		})
		return nil, dup
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}

	passwordHash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	created, err := e.store.Create(ctx, NewIdentity{
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        roles,
	})
	if err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", dup, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
		}
		return nil, err
	}

	result, err := e.issueSession(created)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, created.ID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	return result, nil
}
