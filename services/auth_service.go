package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tour-backend/models"
	"tour-backend/utils"
)

// dummyHash keeps Login's timing the same whether or not the email exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type AuthService struct {
	DB     *gorm.DB
	Tokens *utils.TokenIssuer
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{DB: db, Tokens: tokens}
}

type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      models.User   `json:"user"`
	Caller    models.Caller `json:"caller"`
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func roleNames(roles []models.UserRole) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Role)
	}
	sort.Strings(out)
	return out
}

// Login checks the password and issues an access token. Unknown email and
// wrong password are the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.DB.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !isBcryptHash(user.Password) ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.Tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	log.Printf("🔐 login %s", utils.MaskEmail(user.Email))
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		User:      user,
		Caller:    models.Caller{UserID: user.ID, Email: user.Email, Roles: roleNames(user.Roles)},
	}, nil
}

// ResolveCaller verifies an access token and reads the user's current roles.
// Roles are not trusted from the token so revocations apply immediately.
func (s *AuthService) ResolveCaller(ctx context.Context, token string) (*models.Caller, error) {
	claims, err := s.Tokens.Parse(token, utils.PurposeAccess)
	if err != nil || claims.UserID == 0 {
		return nil, ErrUnauthenticated
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Roles").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	return &models.Caller{UserID: user.ID, Email: user.Email, Roles: roleNames(user.Roles)}, nil
}

// GetUser returns the user behind caller, with roles.
func (s *AuthService) GetUser(ctx context.Context, caller *models.Caller) (*models.User, error) {
	if caller == nil || caller.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Roles").First(&user, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

type UserInput struct {
	FullName string   `json:"full_name" validate:"required,min=2,max=255"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	Roles    []string `json:"roles" validate:"dive,oneof=admin staff"`
}

// CreateUser is the bootstrap path used by the CLI; it does not check a caller.
func (s *AuthService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = utils.NormalizeEmail(in.Email)
	fields, err := utils.FieldErrors(in)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{FullName: in.FullName, Email: in.Email, Password: string(hash)}
	for _, r := range dedupeRoles(in.Roles) {
		user.Roles = append(user.Roles, models.UserRole{Role: r})
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func dedupeRoles(roles []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (s *AuthService) ListUsers(ctx context.Context, caller *models.Caller) ([]models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := s.DB.WithContext(ctx).Preload("Roles").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return users, nil
}

// SetRoles replaces the user's role set. An admin cannot drop their own admin role.
func (s *AuthService) SetRoles(ctx context.Context, caller *models.Caller, userID uint, roles []string) (*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	roles = dedupeRoles(roles)
	for _, r := range roles {
		if !models.IsKnownRole(r) {
			return nil, newValidationError("roles", fmt.Sprintf("unknown role %q", r))
		}
	}
	if userID == caller.UserID && !containsString(roles, models.RoleAdmin) {
		return nil, newValidationError("roles", "you cannot remove your own admin role")
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrUserNotFound
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		for _, r := range roles {
			if err := tx.Create(&models.UserRole{UserID: userID, Role: r}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set roles: %w", err)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Roles").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	log.Printf("roles of user %d set to %v by user %d", userID, roles, caller.UserID)
	return &user, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
