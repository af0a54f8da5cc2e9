package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// PasswordResetScope is the claim scope carried by reset link tokens.
// Tokens with this scope never carry a profile status, so the route guard
// will not accept them as a navigation session.
const PasswordResetScope = "password:reset"

// PasswordResetWindow is how long a reset request stays redeemable.
var PasswordResetWindow = "24h"

// PasswordResetNotifier delivers the reset link out of band, usually over
// email.
type PasswordResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// PasswordResetNotifierFunc adapts a function into a PasswordResetNotifier.
type PasswordResetNotifierFunc func(ctx context.Context, email, token string, expiresAt time.Time) error

// NotifyPasswordReset satisfies the PasswordResetNotifier interface.
func (f PasswordResetNotifierFunc) NotifyPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	if f == nil {
		return nil
	}
	return f(ctx, email, token, expiresAt)
}

// PasswordResetFlow implements the two step reset: Initialize records the
// request and mints a single-use scoped link token; Finalize redeems it
// and swaps the credential's password hash.
type PasswordResetFlow struct {
	repo     RepositoryManager
	tokens   TokenService
	gate     gate.FeatureGate
	notifier PasswordResetNotifier
	activity ActivitySink
	logger   Logger
}

// NewPasswordResetFlow wires the flow from its collaborators.
func NewPasswordResetFlow(repo RepositoryManager, tokens TokenService) *PasswordResetFlow {
	return &PasswordResetFlow{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithFeatureGate gates the flow behind a feature flag check.
func (f *PasswordResetFlow) WithFeatureGate(featureGate gate.FeatureGate) *PasswordResetFlow {
	f.gate = featureGate
	return f
}

// WithNotifier sets the out of band link delivery.
func (f *PasswordResetFlow) WithNotifier(notifier PasswordResetNotifier) *PasswordResetFlow {
	f.notifier = notifier
	return f
}

// WithActivitySink sets the sink used to emit password reset events.
func (f *PasswordResetFlow) WithActivitySink(sink ActivitySink) *PasswordResetFlow {
	f.activity = normalizeActivitySink(sink)
	return f
}

// WithLogger overrides the logger used by the flow.
func (f *PasswordResetFlow) WithLogger(logger Logger) *PasswordResetFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Initialize records a reset request for the account behind email and
// hands the minted link token to the notifier. An unknown email returns
// success without side effects so callers cannot probe for accounts.
func (f *PasswordResetFlow) Initialize(ctx context.Context, email string) error {
	if f.gate != nil {
		if err := requirePasswordResetGate(ctx, f.gate, false); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var token string
	var expiresAt time.Time
	var reset *PasswordReset

	err := f.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := f.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		record := &PasswordReset{
			UserID: &user.ID,
			Email:  email,
			Status: ResetRequestedStatus,
		}

		reset, err = f.repo.PasswordResets().CreateTx(ctx, tx, record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}

		window, err := time.ParseDuration(PasswordResetWindow)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid password reset window")
		}

		token, expiresAt, err = MintScopedToken(f.tokens, &AuthUser{ID: user.ID, Email: user.Email}, ScopedTokenOptions{
			TTL:      window,
			Scopes:   []string{PasswordResetScope},
			Metadata: map[string]any{"reset_id": reset.ID.String()},
		})
		if err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if reset == nil {
		return nil
	}

	if f.notifier != nil {
		if err := f.notifier.NotifyPasswordReset(ctx, email, token, expiresAt); err != nil {
			f.logger.Warn("password reset notification failed: %v", err)
		}
	}

	f.recordActivity(ctx, ActivityEventPasswordResetRequest, reset)

	return nil
}

// Finalize redeems a reset link token and replaces the account password.
func (f *PasswordResetFlow) Finalize(ctx context.Context, token, password string) error {
	if f.gate != nil {
		if err := requirePasswordResetGate(ctx, f.gate, true); err != nil {
			return err
		}
	}

	claims, err := f.tokens.Validate(token)
	if err != nil {
		return err
	}

	if !claims.HasScope(PasswordResetScope) {
		return ErrTokenMalformed
	}

	resetID := resetIDFromClaims(claims)
	if resetID == "" {
		return ErrTokenMalformed
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	reset := &PasswordReset{}

	err = f.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reset, err = f.repo.PasswordResets().GetByID(ctx, resetID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.New("invalid or expired password reset token", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
		}

		if reset.Status != ResetRequestedStatus {
			return goerrors.New("password reset token has already been used", goerrors.CategoryConflict).
				WithTextCode("TOKEN_ALREADY_USED")
		}

		if reset.CreatedAt == nil {
			return goerrors.New("password reset record is missing creation date", goerrors.CategoryInternal)
		}

		expired, err := IsOutsideThresholdPeriod(*reset.CreatedAt, PasswordResetWindow)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token expiration period")
		}

		if expired {
			return goerrors.New("password reset link has expired", goerrors.CategoryValidation).
				WithTextCode(textCodeSessionExpired)
		}

		passwordHash, err := HashPassword(password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if reset.UserID == nil {
			return goerrors.New("password reset record is not associated with a user", goerrors.CategoryInternal)
		}

		if err := f.repo.Users().ResetPasswordTx(ctx, tx, *reset.UserID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}

		r := MarkPasswordAsReset(reset.ID)
		if _, err := f.repo.PasswordResets().UpdateTx(ctx, tx, r); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password reset status")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	f.recordActivity(ctx, ActivityEventPasswordResetSuccess, reset)

	return nil
}

func resetIDFromClaims(claims AuthClaims) string {
	provider, ok := claims.(interface{ ClaimsMetadata() map[string]any })
	if !ok {
		return ""
	}
	id, _ := provider.ClaimsMetadata()["reset_id"].(string)
	return id
}

func (f *PasswordResetFlow) recordActivity(ctx context.Context, eventType ActivityEventType, reset *PasswordReset) {
	if reset == nil || reset.UserID == nil {
		return
	}

	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   reset.UserID.String(),
			Type: "user",
		},
		UserID: reset.UserID.String(),
		Metadata: map[string]any{
			"password_reset_id": reset.ID.String(),
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(f.activity).Record(ctx, event); err != nil {
		f.logger.Warn("activity sink error during password reset: %v", err)
	}
}
