package service

import (
	"context"
	"strings"

	"forum/internal/email"
	"forum/internal/models"
	"forum/internal/observability"
	"forum/internal/repository"
	"forum/internal/token"
	"forum/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the default work factor; stored hashes embed it, so a
// later bump only affects new registrations.
const bcryptCost = 10

// UserService implements registration, login, and profile operations.
type UserService struct {
	userRepo      repository.UserRepository
	codec         *token.Codec
	notifier      email.Notifier
	emailSuffixes []string
	logger        *observability.StructuredLogger
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is the session handed to an authenticated client.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UpdateUsernameInput struct {
	UserID string
	Name   string
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, codec *token.Codec, notifier email.Notifier, emailSuffixes []string) *UserService {
	return &UserService{
		userRepo:      userRepo,
		codec:         codec,
		notifier:      notifier,
		emailSuffixes: emailSuffixes,
		logger:        observability.NewStructuredLogger(),
	}
}

// Signup validates the registration, hashes the password, and mails a
// verification token. No user document is written here; the account exists
// only once the token is redeemed by Verify.
func (s *UserService) Signup(ctx context.Context, in SignupInput) error {
	name := strings.TrimSpace(in.Name)
	addr := strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(name); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmailSuffix(addr, s.emailSuffixes); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	creds := models.Credentials{
		// bcrypt embeds the salt in the first 29 bytes of the hash.
		Salt: string(hash[:29]),
		Hash: string(hash),
	}

	signed, err := s.codec.SignRegistration(token.Registration{
		Name:        name,
		Email:       addr,
		Credentials: creds,
	})
	if err != nil {
		return models.NewExternalError("failed to create registration token", err)
	}

	if err := s.notifier.SendVerification(ctx, addr, name, signed); err != nil {
		return err
	}

	s.logger.LogServiceCall(ctx, "UserService", "Signup", map[string]interface{}{"name": name})
	return nil
}

// Verify redeems a registration token and creates the account. The first
// redemption wins; any later attempt with the same name conflicts.
func (s *UserService) Verify(ctx context.Context, tokenString string) (*LoginResult, error) {
	reg, err := s.codec.VerifyRegistration(tokenString)
	if err != nil {
		return nil, models.NewValidationError("Invalid or expired verification token")
	}

	created, err := s.userRepo.Create(ctx, &models.StoredUser{
		Name:        reg.Name,
		Email:       reg.Email,
		Credentials: reg.Credentials,
	})
	if err != nil {
		return nil, err
	}

	return s.session(created)
}

// Authenticate checks the password and returns a fresh session.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Credentials.Hash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	return s.session(user)
}

// GetUser returns the serializable profile for the id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Serializable(), nil
}

// UpdateUsername renames the authenticated user and returns a fresh session,
// since the old token still carries the previous name.
func (s *UserService) UpdateUsername(ctx context.Context, in UpdateUsernameInput) (*LoginResult, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateUsername(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID.Hex() != in.UserID {
		return nil, models.NewConflictError("Username is already taken")
	}

	updated, err := s.userRepo.UpdateName(ctx, in.UserID, name)
	if err != nil {
		return nil, err
	}
	return s.session(updated)
}

func (s *UserService) session(user *models.StoredUser) (*LoginResult, error) {
	signed, err := s.codec.SignSession(user.ID.Hex(), user.Name)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: signed, User: user.Serializable()}, nil
}
