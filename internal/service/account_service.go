package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront_accounts/internal/logging"
	"storefront_accounts/internal/model"
	"storefront_accounts/internal/repository"
	"storefront_accounts/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrValidation         = errors.New("invalid request")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrAccountNotFound    = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("incorrect current password")
	ErrNotAccountOwner    = errors.New("you can only update your own account")
	ErrPasswordChange     = &ValidationError{Message: "password can only be changed through the profile update with the current password"}
	ErrNoChanges          = &ValidationError{Message: "No changes to update."}
)

// ValidationError reports missing or malformed input. It matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AccountService orchestrates the account lifecycle
type AccountService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.Account, error)
	Login(ctx context.Context, username, password string) (*model.Account, string, error)
	UpdateProfile(ctx context.Context, accountID, currentPassword string, updates model.ProfileUpdate) (*model.Account, string, error)
	UpdateAccount(ctx context.Context, callerID, accountID string, update model.AccountUpdate) (*model.Account, error)
	DeleteAccount(ctx context.Context, accountID string) (*model.Account, error)
}

type accountService struct {
	repo    repository.AccountRepository
	jwtUtil *utils.JWTUtil
}

// NewAccountService creates a new AccountService
func NewAccountService(repo repository.AccountRepository, jwtUtil *utils.JWTUtil) AccountService {
	return &accountService{repo: repo, jwtUtil: jwtUtil}
}

// Register creates a new account after checking username uniqueness
func (s *accountService) Register(ctx context.Context, req model.RegisterRequest) (*model.Account, error) {
	fullName := strings.TrimSpace(req.FullName)
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	mobile := strings.TrimSpace(req.Mobile)
	if fullName == "" || username == "" || email == "" || mobile == "" || req.Password == "" {
		return nil, invalid("all fields are required")
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Username:     username,
		Email:        email,
		Mobile:       mobile,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		// Lost a race with a concurrent registration of the same username
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create account in repository: %w", err)
	}

	logging.FromContext(ctx).Info("account registered", "account_id", account.ID, "username", account.Username)
	return account, nil
}

// Login verifies credentials and issues a token
func (s *accountService) Login(ctx context.Context, username, password string) (*model.Account, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", invalid("username and password are required")
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("error finding account by username: %w", err)
	}
	if account == nil {
		return nil, "", ErrAccountNotFound
	}

	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// UpdateProfile re-verifies the caller's password, applies the supplied fields
// and returns a fresh token. Earlier tokens stay valid until they expire.
func (s *accountService) UpdateProfile(ctx context.Context, accountID, currentPassword string, updates model.ProfileUpdate) (*model.Account, string, error) {
	if currentPassword == "" {
		return nil, "", invalid("current password is required")
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, "", err
	}

	if !utils.CheckPasswordHash(currentPassword, account.PasswordHash) {
		return nil, "", ErrIncorrectPassword
	}

	if updates.IsEmpty() {
		return nil, "", ErrNoChanges
	}

	if err := s.applyAndSave(ctx, account, updates); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// UpdateAccount applies a partial update by id on behalf of callerID, who must
// own the account. Passwords are rejected here.
func (s *accountService) UpdateAccount(ctx context.Context, callerID, accountID string, update model.AccountUpdate) (*model.Account, error) {
	if callerID == "" || callerID != accountID {
		logging.FromContext(ctx).Warn("rejected update of another account", "caller_id", callerID, "account_id", accountID)
		return nil, ErrNotAccountOwner
	}
	if update.Password != nil {
		return nil, ErrPasswordChange
	}
	profile := update.Profile()
	if profile.IsEmpty() {
		return nil, ErrNoChanges
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.applyAndSave(ctx, account, profile); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes the account. Tokens already issued for it are not revoked.
func (s *accountService) DeleteAccount(ctx context.Context, accountID string) (*model.Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, ErrAccountNotFound
	}

	deleted, err := s.repo.Delete(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete account in repository: %w", err)
	}
	if deleted == nil {
		return nil, ErrAccountNotFound
	}

	logging.FromContext(ctx).Info("account deleted", "account_id", deleted.ID)
	return deleted, nil
}

func (s *accountService) findAccount(ctx context.Context, accountID string) (*model.Account, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, ErrAccountNotFound
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// applyAndSave copies the supplied fields onto account and persists it when
// something actually differs from the stored values.
func (s *accountService) applyAndSave(ctx context.Context, account *model.Account, updates model.ProfileUpdate) error {
	changed := false

	setField := func(name string, value *string, dst *string) error {
		if value == nil {
			return nil
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			return invalid("%s cannot be empty", name)
		}
		if v != *dst {
			*dst = v
			changed = true
		}
		return nil
	}

	originalUsername := account.Username
	if err := setField("fullName", updates.FullName, &account.FullName); err != nil {
		return err
	}
	if err := setField("username", updates.Username, &account.Username); err != nil {
		return err
	}
	if err := setField("email", updates.Email, &account.Email); err != nil {
		return err
	}
	if err := setField("mobile", updates.Mobile, &account.Mobile); err != nil {
		return err
	}

	if account.Username != originalUsername {
		holder, err := s.repo.FindByUsername(ctx, account.Username)
		if err != nil {
			return fmt.Errorf("failed to check existing account: %w", err)
		}
		if holder != nil && holder.ID != account.ID {
			return ErrUsernameTaken
		}
	}

	if updates.Password != nil {
		if *updates.Password == "" {
			return invalid("password cannot be empty")
		}
		hash, err := hashPassword(*updates.Password)
		if err != nil {
			return err
		}
		account.PasswordHash = hash
		changed = true
	}

	if !changed {
		return nil
	}

	if err := s.repo.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to update account in repository: %w", err)
	}

	logging.FromContext(ctx).Info("account updated", "account_id", account.ID)
	return nil
}

func (s *accountService) issueToken(account *model.Account) (string, error) {
	token, err := s.jwtUtil.GenerateToken(utils.Identity{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Mobile:    account.Mobile,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func hashPassword(password string) (string, error) {
	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", invalid("password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}
