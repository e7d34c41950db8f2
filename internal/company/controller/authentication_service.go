package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gartstein/companyemployees/internal/company/contracts"
	entities "github.com/gartstein/companyemployees/internal/company/db/models"
	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/gartstein/companyemployees/internal/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 10
	// bcrypt only accepts up to 72 bytes
	maxPasswordLength = 72
)

// AuthenticationService registers API users and issues access tokens.
type AuthenticationService struct {
	users  contracts.UserStore
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAuthenticationService(users contracts.UserStore, tokens TokenIssuer, logger *zap.Logger) *AuthenticationService {
	return &AuthenticationService{
		users:  users,
		tokens: tokens,
		logger: logger.Named("authentication_service"),
	}
}

// RegisterUser creates a user with the requested roles. Rule violations are
// reported together as a bad request carrying per-code messages.
func (s *AuthenticationService) RegisterUser(ctx context.Context, in models.UserForRegistration) error {
	problems := passwordProblems(in.Password)

	taken, err := s.users.ExistsByUserNameOrEmail(ctx, in.UserName, in.Email)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if taken {
		problems["DuplicateUserName"] = []string{fmt.Sprintf("Username '%s' or email is already taken.", in.UserName)}
	}

	roles, err := s.users.FindRoles(ctx, in.Roles)
	if err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}
	if len(roles) != len(in.Roles) {
		known := make(map[string]bool, len(roles))
		for _, r := range roles {
			known[r.Name] = true
		}
		for _, name := range in.Roles {
			if !known[name] {
				problems["InvalidRole"] = append(problems["InvalidRole"], fmt.Sprintf("Role %s does not exist.", name))
			}
		}
	}

	if len(problems) > 0 {
		return &e.Error{Kind: e.ErrBadRequest, Message: "User registration failed.", Fields: problems}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		UserName:     in.UserName,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		Roles:        roles,
	}
	if in.Email != "" {
		user.Email = utils.Ptr(in.Email)
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("User registered", zap.String("user", user.UserName), zap.Strings("roles", user.RoleNames()))
	return nil
}

// ValidateUser returns the user when the credentials match.
func (s *AuthenticationService) ValidateUser(ctx context.Context, in models.UserForAuthentication) (*entities.User, error) {
	user, err := s.users.FindByUserName(ctx, in.UserName)
	if err != nil && !errors.Is(err, e.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		s.logger.Warn("Authentication failed. Wrong user name or password.", zap.String("user", in.UserName))
		return nil, e.Unauthorized("Authentication failed. Wrong user name or password.")
	}
	return user, nil
}

func (s *AuthenticationService) CreateToken(user *entities.User) (*models.TokenDto, error) {
	token, err := s.tokens.GenerateToken(user.UserName, user.RoleNames())
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &models.TokenDto{AccessToken: token}, nil
}

func passwordProblems(password string) map[string][]string {
	problems := make(map[string][]string)
	if len(password) < minPasswordLength {
		problems["PasswordTooShort"] = []string{fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength)}
	}
	if len(password) > maxPasswordLength {
		problems["PasswordTooLong"] = []string{fmt.Sprintf("Passwords must be at most %d bytes.", maxPasswordLength)}
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		problems["PasswordRequiresDigit"] = []string{"Passwords must have at least one digit ('0'-'9')."}
	}
	return problems
}
