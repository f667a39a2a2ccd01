package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeojun7429/portfolio-api/internal/database"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/token"
	"github.com/yeojun7429/portfolio-api/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong
// password. The two cases share one message on purpose.
var ErrInvalidCredentials = errors.New("email or password is incorrect")

// Credentials are the inputs to a sign-in attempt.
type Credentials struct {
	Email    string `json:"email" validate:"required,demo_email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LocalProvider resolves credentials against the users table with bcrypt
// password hashes and issues session tokens locally.
type LocalProvider struct {
	users  database.UserRepositoryInterface
	signer *token.Signer
	logger *zap.Logger
}

// NewLocalProvider creates a provider backed by the given user repository.
func NewLocalProvider(users database.UserRepositoryInterface, signer *token.Signer, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{users: users, signer: signer, logger: logger}
}

var _ Provider = (*LocalProvider)(nil)

// SignIn validates the credential shape, looks the user up by email, and
// checks the password hash. Shape errors are returned as-is so callers can
// show them; lookup and hash mismatches both come back as
// ErrInvalidCredentials.
func (p *LocalProvider) SignIn(ctx context.Context, creds Credentials) (*models.User, string, error) {
	if err := validation.Validate.Struct(creds); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", err)
	}

	user, err := p.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tokenString, err := p.signer.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return user, tokenString, nil
}

// SignOut has no provider-side session state to discard; tokens simply
// expire.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	return nil
}
