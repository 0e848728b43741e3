package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/apperror"
	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/database/users"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrInvalidCredentials = apperror.New(apperror.ErrAuthentication, "invalid_credentials", "Invalid credentials")
	ErrUsernameRequired   = apperror.New(apperror.ErrValidation, "username_required", "Username is required for regular users")
	ErrAccountInactive    = apperror.Forbidden("Account is inactive")
	ErrEmailTaken         = apperror.New(apperror.ErrConflict, "email_taken", "Email already registered")
	ErrUsernameTaken      = apperror.New(apperror.ErrConflict, "username_taken", "Username already taken")
	ErrUsernameInvalid    = apperror.Validation("Username must be 3-64 characters: letters, digits, dot, underscore or hyphen")
	ErrEmailInvalid       = apperror.Validation("Invalid email format")
	ErrPasswordInvalid    = apperror.Validation("Password must be between 8 and 72 characters")
	ErrUserNotFound       = apperror.NotFound("User not found")
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uint      `json:"user_id"`
	Role        string    `json:"role"`
}

// ProfileUpdate holds optional profile changes; empty fields are left alone.
type ProfileUpdate struct {
	Username string
	Email    string
	Password string
}

// UserSummary is the public listing shape of a user.
type UserSummary struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Service handles authentication and user management.
type Service struct {
	db     *gorm.DB
	users  *users.Repository
	tokens *TokenIssuer
	config config.Auth
	audit  *audit.Service
}

// NewService creates a new authentication service. auditor may be nil.
func NewService(db *gorm.DB, cfg config.Auth, tokens *TokenIssuer, auditor *audit.Service) *Service {
	return &Service{
		db:     db,
		users:  users.NewRepository(db),
		tokens: tokens,
		config: cfg,
		audit:  auditor,
	}
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, email, username, password string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if err := validateIdentity(email, username); err != nil {
		return nil, err
	}
	return s.createUser(ctx, email, username, password)
}

// Login checks credentials and issues an access token. Librarians may omit
// the username; regular users must supply the one on their account.
func (s *Service) Login(ctx context.Context, email, username, password, clientIP string) (*LoginResult, error) {
	repo := users.NewRepository(s.db.WithContext(ctx))
	user, err := repo.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.audit.LogAuth(0, "login_failed", clientIP, false)
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Persistence(err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.audit.LogAuth(user.ID, "login_failed", clientIP, false)
		return nil, ErrInvalidCredentials
	}

	if !user.HasRole(entities.RoleLibrarian) {
		if username == "" {
			return nil, ErrUsernameRequired
		}
		if username != user.Username {
			s.audit.LogAuth(user.ID, "login_failed", clientIP, false)
			return nil, ErrInvalidCredentials
		}
	}

	if !user.Active {
		s.audit.LogAuth(user.ID, "login_inactive", clientIP, false)
		return nil, ErrAccountInactive
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.audit.LogAuth(user.ID, "login", clientIP, true)
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      user.ID,
		Role:        user.RoleName(),
	}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	userID, uniquifier, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperror.New(apperror.ErrAuthentication, "token_expired", "Token has expired")
		}
		return nil, apperror.New(apperror.ErrAuthentication, "invalid_token", "Invalid or expired token")
	}

	user, err := users.NewRepository(s.db.WithContext(ctx)).GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrAuthentication, "invalid_token", "Invalid or expired token")
		}
		return nil, apperror.Persistence(err)
	}
	if user.FsUniquifier != uniquifier {
		return nil, apperror.New(apperror.ErrAuthentication, "invalid_token", "Invalid or expired token")
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	user, err := users.NewRepository(s.db.WithContext(ctx)).GetUserByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return user, nil
}

// ListUsers returns every user with their role label.
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	list, err := users.NewRepository(s.db.WithContext(ctx)).ListUsers()
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	out := make([]UserSummary, 0, len(list))
	for i := range list {
		out = append(out, UserSummary{
			ID:       list[i].ID,
			Email:    list[i].Email,
			Username: list[i].Username,
			Role:     list[i].RoleName(),
		})
	}
	return out, nil
}

// UpdateProfile applies the non-empty fields of update to the user's account.
// A password change rotates the uniquifier, invalidating issued tokens.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*entities.User, error) {
	update.Username = strings.TrimSpace(update.Username)
	update.Email = strings.TrimSpace(update.Email)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		changes := map[string]any{}

		if update.Username != "" {
			if !usernamePattern.MatchString(update.Username) {
				return ErrUsernameInvalid
			}
			taken, err := repo.UsernameTaken(update.Username, userID)
			if err != nil {
				return err
			}
			if taken {
				return ErrUsernameTaken
			}
			changes["username"] = update.Username
		}
		if update.Email != "" {
			if len(update.Email) > 254 || !emailPattern.MatchString(update.Email) {
				return ErrEmailInvalid
			}
			taken, err := repo.EmailTaken(update.Email, userID)
			if err != nil {
				return err
			}
			if taken {
				return apperror.New(apperror.ErrConflict, "email_taken", "Email already in use")
			}
			changes["email"] = update.Email
		}
		if update.Password != "" {
			hash, err := HashPassword(update.Password, s.config.BcryptCost)
			if err != nil {
				return ErrPasswordInvalid
			}
			changes["password_hash"] = hash
			changes["fs_uniquifier"] = uuid.NewString()
		}
		if len(changes) == 0 {
			_, err := repo.GetUserByID(userID)
			return err
		}
		return repo.UpdateUser(userID, changes)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("Username or email already in use")
	}
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return s.GetUser(ctx, userID)
}

// IsLibrarian reports whether the user holds the librarian role.
func (s *Service) IsLibrarian(ctx context.Context, userID uint) (bool, error) {
	ok, err := users.NewRepository(s.db.WithContext(ctx)).HasRole(userID, entities.RoleLibrarian)
	if err != nil {
		return false, apperror.Persistence(err)
	}
	return ok, nil
}

// EnsureLibrarian creates the librarian account when no user holds the
// librarian role yet. It reports whether an account was created.
func (s *Service) EnsureLibrarian(ctx context.Context, cfg config.Librarian) (bool, error) {
	count, err := users.NewRepository(s.db.WithContext(ctx)).CountUsersWithRole(entities.RoleLibrarian)
	if err != nil {
		return false, fmt.Errorf("count librarians: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.CreateLibrarian(ctx, cfg.Email, cfg.Username, cfg.Password); err != nil {
		return false, err
	}
	log.Printf("Seeded librarian account %s", cfg.Email)
	return true, nil
}

// CreateLibrarian creates a user holding the librarian role.
func (s *Service) CreateLibrarian(ctx context.Context, email, username, password string) (*entities.User, error) {
	if err := validateIdentity(email, username); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	if err := users.NewRepository(s.db.WithContext(ctx)).AssignRole(user.ID, entities.RoleLibrarian); err != nil {
		return nil, apperror.Persistence(err)
	}
	return s.GetUser(ctx, user.ID)
}

func (s *Service) createUser(ctx context.Context, email, username, password string) (*entities.User, error) {
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, ErrPasswordInvalid
	}

	user := &entities.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
		FsUniquifier: uuid.NewString(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		taken, err := repo.EmailTaken(email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		taken, err = repo.UsernameTaken(username, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
		return repo.CreateUser(user)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.Conflict("Email or username already registered")
	}
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return user, nil
}

func validateIdentity(email, username string) error {
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}
