package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/config"
	"github.com/nilesh-agrahari/SecureFileShare/internal/ids"
	"github.com/nilesh-agrahari/SecureFileShare/internal/mailer"
	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidSignup      = errors.New("invalid signup")
	ErrLinkInvalid        = errors.New("invalid link")
)

type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	MarkVerified(ctx context.Context, email string) error
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type AuthService struct {
	accounts AccountStore
	sessions SessionStore
	signer   *security.Signer
	mail     mailer.Sender
	cfg      *config.AppConfig
	log      zerolog.Logger

	// Hash verified against on unknown-email logins so that path does
	// roughly the same work as a wrong-password login.
	decoyHash []byte
}

func NewAuthService(
	accounts AccountStore,
	sessions SessionStore,
	signer *security.Signer,
	mail mailer.Sender,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	decoy, err := security.HashPassword(ids.New())
	if err != nil {
		decoy = nil
	}
	return &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		signer:    signer,
		mail:      mail,
		cfg:       cfg,
		log:       log,
		decoyHash: decoy,
	}
}

type SignupInput struct {
	Email    string
	Password string
	Role     models.AccountRole
}

type SignupResult struct {
	Account          models.Account
	VerificationLink string
}

// Signup creates the account unverified and returns the verification link.
// The link is computed before mail delivery and returned regardless of it:
// a dead relay must not strand a committed account.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (SignupResult, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return SignupResult{}, fmt.Errorf("%w: email and password required", ErrInvalidSignup)
	}
	if !models.ValidRole(input.Role) {
		return SignupResult{}, fmt.Errorf("%w: role must be OPS or CLIENT", ErrInvalidSignup)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return SignupResult{}, err
	}

	account := models.Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         input.Role,
		IsVerified:   false,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return SignupResult{}, err
	}

	token := s.signer.Sign(security.PurposeVerifyEmail, email)
	link := fmt.Sprintf("%s/api/v1/auth/verify-email/%s",
		strings.TrimSuffix(s.cfg.Security.PublicBaseURL, "/"), token)

	body := "Click the link to verify: " + link
	if err := s.mail.Send(ctx, email, "Verify your email", body); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("verification mail delivery failed")
	}

	return SignupResult{Account: account, VerificationLink: link}, nil
}

// Verify redeems an email-verification token. Tokens for this purpose do
// not expire. Verifying an already-verified account succeeds again.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	email, err := s.signer.Unsign(security.PurposeVerifyEmail, token, 0)
	if err != nil {
		return ErrLinkInvalid
	}

	if err := s.accounts.MarkVerified(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrLinkInvalid
		}
		return err
	}
	return nil
}

type LoginResult struct {
	Token   string
	Account models.Account
}

// Login checks credentials before the verification flag, so a correct
// password on an unverified account yields ErrEmailNotVerified, never a
// session. Unknown email and wrong password collapse into one error.
func (s *AuthService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if s.decoyHash != nil {
				_, _ = security.VerifyPassword(password, s.decoyHash)
			}
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !account.IsVerified {
		return LoginResult{}, ErrEmailNotVerified
	}

	session := models.Session{
		ID:        ids.New(),
		AccountID: account.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, err
	}

	token, err := security.GenerateSessionToken(s.cfg.Security.SessionSecret, account.ID, session.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, Account: account}, nil
}

// Logout revokes the session behind the presented bearer key. Revoking an
// unknown or already-revoked key is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := security.ParseSessionToken(token, s.cfg.Security.SessionSecret)
	if err != nil {
		return ErrInvalidCredentials
	}
	if err := s.sessions.DeleteByID(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
