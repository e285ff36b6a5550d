package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/authcore/internal"
)

// ChangePassword describes the changepassword operation and its observable behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, subjectID, oldPassword, newPassword string) error {
	if e == nil || e.store == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	identity, err := e.store.FindByID(ctx, subjectID, true)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return ErrIdentityNotFound
		}
		return err
	}

	ok, err := e.passwordHash.Verify(oldPassword, identity.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordRejected, false, subjectID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "old_password_mismatch",
			}
		})
		return ErrInvalidCredentials
	}

	if oldPassword == newPassword {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordRejected, false, subjectID, ErrPasswordReuse, func() map[string]string {
			return map[string]string{
				"reason": "password_reuse",
			}
		})
		return ErrPasswordReuse
	}

	if err := ValidatePassword(newPassword, e.config.Policy); err != nil {
		e.emitAudit(ctx, auditEventPasswordRejected, false, subjectID, err, func() map[string]string {
			return map[string]string{
				"reason": "policy_violation",
			}
		})
		return err
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.store.UpdatePasswordHash(ctx, subjectID, newHash); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChanged, true, subjectID, nil, nil)

	return nil
}

// RequestPasswordReset issues a one-shot reset challenge for the account
// behind email. Unknown addresses return an empty challenge and no error
// so callers cannot probe which addresses hold accounts.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil || e.store == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.Reset.Enabled || e.resetStore == nil {
		return "", ErrResetDisabled
	}

	email = NormalizeEmail(email)

	identity, err := e.store.FindByEmail(ctx, email, false)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricPasswordResetRequest)
			e.emitAudit(ctx, auditEventResetRequested, false, "", nil, func() map[string]string {
				return map[string]string{
					"reason": "account_not_found",
				}
			})
			return "", nil
		}
		return "", err
	}

	resetID, err := internal.NewResetID()
	if err != nil {
		return "", err
	}
	secret, err := internal.NewResetSecret()
	if err != nil {
		return "", err
	}

	record := &passwordResetRecord{
		SubjectID:  identity.ID,
		SecretHash: internal.HashResetSecret(secret),
		ExpiresAt:  time.Now().Add(e.config.Reset.TTL).Unix(),
	}
	if err := e.resetStore.Save(ctx, resetID.String(), record, e.config.Reset.TTL); err != nil {
		return "", err
	}

	challenge, err := internal.EncodeResetToken(resetID.String(), secret)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventResetRequested, true, identity.ID, nil, nil)

	return challenge, nil
}

// ConfirmPasswordReset describes the confirmpasswordreset operation and its observable behavior.
//
// ConfirmPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// ConfirmPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, challenge, newPassword string) error {
	if e == nil || e.store == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}
	if !e.config.Reset.Enabled || e.resetStore == nil {
		return ErrResetDisabled
	}

	resetID, secret, err := internal.DecodeResetToken(challenge)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventResetRejected, false, "", ErrResetInvalid, func() map[string]string {
			return map[string]string{
				"reason": "malformed_challenge",
			}
		})
		return ErrResetInvalid
	}

	if err := ValidatePassword(newPassword, e.config.Policy); err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventResetRejected, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": "policy_violation",
			}
		})
		return err
	}

	record, err := e.resetStore.Consume(ctx, resetID, internal.HashResetSecret(secret), e.config.Reset.MaxAttempts)
	if err != nil {
		if errors.Is(err, errResetAttemptsExceeded) {
			e.metricInc(MetricPasswordResetAttemptsExceeded)
			e.emitAudit(ctx, auditEventResetRejected, false, "", ErrResetAttemptsExceeded, nil)
			return ErrResetAttemptsExceeded
		}
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventResetRejected, false, "", ErrResetInvalid, func() map[string]string {
			return map[string]string{
				"reason": "challenge_rejected",
			}
		})
		return ErrResetInvalid
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.store.UpdatePasswordHash(ctx, record.SubjectID, newHash); err != nil {
		return err
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventResetConfirmed, true, record.SubjectID, nil, nil)

	return nil
}
