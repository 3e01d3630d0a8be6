package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const mfaIssuer = "hrpay"

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	MFASecret(ctx context.Context, userID string) ([]byte, error)
	UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
}

// SecretSealer protects TOTP secrets at rest.
type SecretSealer interface {
	Configured() bool
	SealString(value string) ([]byte, error)
	OpenString(value []byte) (string, error)
}

type Service struct {
	store    UserStore
	sealer   SecretSealer
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(store UserStore, sealer SecretSealer, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, sealer: sealer, secret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserContext `json:"user"`
}

// Login checks the password and, when enabled, the TOTP code, then issues a token.
func (s *Service) Login(ctx context.Context, email, password, code string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.MFAEnabled {
		if strings.TrimSpace(code) == "" {
			return LoginResult{}, ErrMFARequired
		}
		if err := s.validateCode(user.MFASecretEnc, code); err != nil {
			return LoginResult{}, err
		}
	}

	token, err := GenerateToken(s.secret, user.Context(), s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return LoginResult{Token: token, ExpiresAt: s.now().Add(s.tokenTTL).UTC(), User: user.Context()}, nil
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// SetupMFA stores a fresh TOTP secret; it takes effect after EnableMFA.
func (s *Service) SetupMFA(ctx context.Context, user UserContext) (MFASetup, error) {
	if s.sealer == nil || !s.sealer.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	sealed, err := s.sealer.SealString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateMFASecret(ctx, user.UserID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, user UserContext, code string) error {
	return s.toggleMFA(ctx, user, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, user UserContext, code string) error {
	return s.toggleMFA(ctx, user, code, false)
}

func (s *Service) toggleMFA(ctx context.Context, user UserContext, code string, enabled bool) error {
	if s.sealer == nil || !s.sealer.Configured() {
		return ErrMFAUnavailable
	}
	sealed, err := s.store.MFASecret(ctx, user.UserID)
	if err != nil {
		return err
	}
	if err := s.validateCode(sealed, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, user.UserID, enabled)
}

func (s *Service) validateCode(sealed []byte, code string) error {
	secret := string(sealed)
	if s.sealer != nil && s.sealer.Configured() {
		opened, err := s.sealer.OpenString(sealed)
		if err != nil {
			return ErrMFAInvalid
		}
		secret = opened
	}
	valid, err := totp.ValidateCustom(strings.TrimSpace(code), secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if secret == "" || err != nil || !valid {
		return ErrMFAInvalid
	}
	return nil
}
