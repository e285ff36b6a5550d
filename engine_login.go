package authcore

import (
	"context"
	"errors"
	"log"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Every failure mode that depends on the submitted email resolves to the
// same [ErrInvalidCredentials] so a caller cannot probe which addresses
// hold accounts.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	if e == nil || e.store == nil || e.passwordHash == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	email = NormalizeEmail(email)
	if email == "" || plaintext == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "empty_input",
			}
		})
		return nil, ErrInvalidCredentials
	}

	identity, err := e.store.FindByEmail(ctx, email, true)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			return nil, err
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "account_not_found",
			}
		})
		return nil, ErrInvalidCredentials
	}

	ok, err := e.passwordHash.Verify(plaintext, identity.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if needsUpgrade, err := e.passwordHash.NeedsUpgrade(identity.PasswordHash); err == nil && needsUpgrade {
		if upgradedHash, err := e.passwordHash.Hash(plaintext); err == nil {
			// Rehash update is best-effort and must not block successful login.
			if err := e.store.UpdatePasswordHash(ctx, identity.ID, upgradedHash); err != nil {
				log.Print("authcore: password hash upgrade update failed")
			}
		} else {
			log.Print("authcore: password hash upgrade generation failed")
		}
	}
	identity.PasswordHash = ""

	result, err := e.issueSession(identity)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	return result, nil
}
