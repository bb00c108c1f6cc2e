package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"stores-api/internal/domain"
	"stores-api/internal/notifier"
	"stores-api/internal/repository"
	"stores-api/internal/token"
)

const (
	confirmationSubject = "Registration confirmation"
	confirmationText    = "Please click the link to confirm your registration: %s"
	confirmationHTML    = "<html><p>Please click the link to confirm your registration: <a href='%s'>%s</a></p></html>"
)

// TokenPair is what a successful login hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates registration, login, logout and confirmation
// over the credential store, the confirmation ledger, the token issuer
// and the notifier. It is the only entry point the HTTP layer uses.
type AuthService struct {
	users         repository.UserRepository
	confirmations *ConfirmationService
	issuer        *token.Issuer
	mailer        notifier.Notifier
	baseURL       string
	logger        *logrus.Logger
	dummyHash     []byte
}

func NewAuthService(
	users repository.UserRepository,
	confirmations *ConfirmationService,
	issuer *token.Issuer,
	mailer notifier.Notifier,
	baseURL string,
	logger *logrus.Logger,
) *AuthService {
	// compared against when the username does not exist, so a miss costs
	// the same as a wrong password
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return &AuthService{
		users:         users,
		confirmations: confirmations,
		issuer:        issuer,
		mailer:        mailer,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
		dummyHash:     dummyHash,
	}
}

// Register creates the user, its initial confirmation record, and sends
// the confirmation email. If the email cannot be dispatched the user is
// deleted again (the cascade removes the confirmation), so registration
// either fully succeeds or leaves no trace.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, errors.New("username is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}

	confirmation, err := s.confirmations.Create(ctx, user.ID)
	if err != nil {
		s.rollbackUser(ctx, user.ID)
		return nil, err
	}

	if err := s.sendConfirmationEmail(ctx, user.Email, confirmation.ID); err != nil {
		s.rollbackUser(ctx, user.ID)
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *AuthService) rollbackUser(ctx context.Context, userID int64) {
	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.WithError(err).Warnf("rollback user %d", userID)
	}
}

// Login verifies the credentials and the confirmation gate, then issues a
// fresh access token and a refresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn the same bcrypt work as a real comparison
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	confirmation, err := s.confirmations.MostRecentFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if confirmation == nil || !confirmation.Confirmed {
		return nil, ErrNotConfirmed
	}

	accessToken, err := s.issuer.IssueAccess(user.ID, true)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ResendConfirmation force-expires the user's current record, creates a
// new one, and dispatches a new email. The new record is persisted before
// the email goes out; a delivery failure is surfaced without rolling it
// back, since a retried resend just force-expires it again.
func (s *AuthService) ResendConfirmation(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	current, err := s.confirmations.MostRecentFor(ctx, userID)
	if err != nil {
		return err
	}
	if current != nil {
		if current.Confirmed {
			return ErrAlreadyConfirmed
		}
		if err := s.confirmations.ForceExpire(ctx, current); err != nil {
			return err
		}
	}

	confirmation, err := s.confirmations.Create(ctx, userID)
	if err != nil {
		return err
	}
	return s.sendConfirmationEmail(ctx, user.Email, confirmation.ID)
}

// Logout revokes the presented token's identifier so every later
// validation of it fails, even before its natural expiry.
func (s *AuthService) Logout(ctx context.Context, tokenString string) (int64, error) {
	claims, err := s.issuer.Validate(ctx, tokenString)
	if err != nil {
		return 0, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, err
	}
	if err := s.issuer.Revoke(ctx, claims); err != nil {
		return 0, err
	}
	return userID, nil
}

// Refresh exchanges a refresh token for a new non-fresh access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.issuer.Refresh(ctx, refreshToken)
}

// GetUser returns the user without its password hash.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// DeleteUser removes the user; its confirmation records go with it.
func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *AuthService) sendConfirmationEmail(ctx context.Context, email, confirmationID string) error {
	link := fmt.Sprintf("%s/api/confirm/%s", s.baseURL, confirmationID)
	text := fmt.Sprintf(confirmationText, link)
	html := fmt.Sprintf(confirmationHTML, link, link)
	return s.mailer.Send(ctx, email, confirmationSubject, text, html)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
