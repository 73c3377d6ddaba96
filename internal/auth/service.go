package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/redmonkez12/teamtasks/internal/logging"
	"github.com/redmonkez12/teamtasks/internal/password"
	"github.com/redmonkez12/teamtasks/internal/token"
	"github.com/redmonkez12/teamtasks/internal/user"
)

const maxEmailLength = 254

var tracer = otel.Tracer("github.com/redmonkez12/teamtasks/internal/auth")

// UserStore persists users together with their credentials
type UserStore interface {
	CreateUser(ctx context.Context, nu user.NewUser) (uuid.UUID, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, *user.Credential, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID) error
}

// PasswordHasher hashes and checks passwords
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(raw, encodedHash string) bool
}

// ConfirmationStore keeps pending email confirmation tokens
type ConfirmationStore interface {
	StoreConfirmationToken(ctx context.Context, userID uuid.UUID, token string) error
	GetConfirmationToken(ctx context.Context, token string) (uuid.UUID, error)
	DeleteConfirmationToken(ctx context.Context, token string) error
}

// EmailService sends account emails
type EmailService interface {
	SendConfirmationEmail(ctx context.Context, toEmail, username, token string) error
}

// Options tunes service behaviour
type Options struct {
	// DefaultAvatar is stored for every new user
	DefaultAvatar string
	// MergeCredentialErrors makes Authenticate return ErrInvalidCredentials
	// for both an unknown email and a wrong password.
	MergeCredentialErrors bool
}

// SignUpInput is the data needed to register a user
type SignUpInput struct {
	Username string
	Email    string
	Password string
}

// Service handles authentication business logic
type Service struct {
	users         UserStore
	hasher        PasswordHasher
	codec         token.Codec
	confirmations ConfirmationStore
	emailService  EmailService
	logger        *logging.Logger
	opts          Options
}

func NewService(users UserStore, hasher PasswordHasher, codec token.Codec, logger *logging.Logger, opts Options) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		codec:  codec,
		logger: logger,
		opts:   opts,
	}
}

// WithConfirmation enables confirmation emails after registration
func (s *Service) WithConfirmation(confirmations ConfirmationStore, emailService EmailService) *Service {
	s.confirmations = confirmations
	s.emailService = emailService
	return s
}

// ConfirmationEnabled reports whether confirmation emails are sent
func (s *Service) ConfirmationEnabled() bool {
	return s.confirmations != nil && s.emailService != nil
}

// Register creates a user with its credential and returns a token for it
func (s *Service) Register(ctx context.Context, in SignUpInput) (_ *token.Token, err error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()

	in.Username = strings.TrimSpace(in.Username)
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, user.NewUser{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hashed,
		Avatar:         s.opts.DefaultAvatar,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", id.String()))

	tok, err := s.codec.Issue(token.Identity{ID: id, Username: in.Username, Email: in.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.ConfirmationEnabled() {
		s.startConfirmation(ctx, id, in.Username, in.Email)
	}

	return tok, nil
}

// Authenticate checks an email and password pair and returns a fresh token
func (s *Service) Authenticate(ctx context.Context, email, raw string) (_ *token.Token, err error) {
	ctx, span := tracer.Start(ctx, "auth.Authenticate")
	defer func() { endSpan(span, err) }()

	u, cred, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, s.credentialError(ErrUserNotFound)
		}
		return nil, err
	}

	if !s.hasher.Verify(raw, cred.HashedPassword) {
		return nil, s.credentialError(ErrIncorrectPassword)
	}
	span.SetAttributes(attribute.String("user.id", u.ID.String()))

	tok, err := s.codec.Issue(token.Identity{ID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return tok, nil
}

// CurrentIdentity resolves the user snapshot carried by a bearer token
func (s *Service) CurrentIdentity(ctx context.Context, bearer string) (*token.Identity, error) {
	_, span := tracer.Start(ctx, "auth.CurrentIdentity")
	defer span.End()

	identity, err := s.codec.Verify(bearer)
	if err != nil {
		span.SetAttributes(attribute.Bool("token.expired", errors.Is(err, token.ErrTokenExpired)))
		return nil, fmt.Errorf("%w: %w", ErrCannotValidateToken, err)
	}

	return identity, nil
}

// ConfirmEmail marks the owner of a confirmation token as confirmed.
// A token can be used once.
func (s *Service) ConfirmEmail(ctx context.Context, confirmationToken string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.ConfirmEmail")
	defer func() { endSpan(span, err) }()

	if s.confirmations == nil || confirmationToken == "" {
		return ErrInvalidConfirmationToken
	}

	userID, err := s.confirmations.GetConfirmationToken(ctx, confirmationToken)
	if err != nil {
		if errors.Is(err, ErrConfirmationTokenNotFound) {
			return ErrInvalidConfirmationToken
		}
		return fmt.Errorf("failed to look up confirmation token: %w", err)
	}

	if err := s.users.MarkConfirmed(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidConfirmationToken
		}
		return err
	}

	if err := s.confirmations.DeleteConfirmationToken(ctx, confirmationToken); err != nil {
		s.logger.Warn("failed to delete used confirmation token", "user_id", userID, "error", err)
	}

	return nil
}

// startConfirmation stores a confirmation token and mails it in the background.
// Failures are logged; registration has already succeeded.
func (s *Service) startConfirmation(ctx context.Context, userID uuid.UUID, username, email string) {
	logger := logging.GetLoggerFromContext(ctx)

	confirmationToken, err := generateRandomToken()
	if err != nil {
		logger.Error("failed to generate confirmation token", "error", err)
		return
	}

	if err := s.confirmations.StoreConfirmationToken(ctx, userID, confirmationToken); err != nil {
		logger.Error("failed to store confirmation token", "user_id", userID, "error", err)
		return
	}

	go func() {
		emailCtx := logging.WithLogger(context.Background(), logger)
		if err := s.emailService.SendConfirmationEmail(emailCtx, email, username, confirmationToken); err != nil {
			logger.Warn("failed to send confirmation email", "user_id", userID, "error", err)
		}
	}()
}

func (s *Service) credentialError(err error) error {
	if s.opts.MergeCredentialErrors {
		return ErrInvalidCredentials
	}
	return err
}

func validateSignUp(in SignUpInput) error {
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(in.Email) > maxEmailLength {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

// generateRandomToken creates a cryptographically secure random token
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
