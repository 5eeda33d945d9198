package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront_accounts/internal/model"
	"storefront_accounts/internal/repository"
	"storefront_accounts/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T) (AccountService, repository.AccountRepository, *utils.JWTUtil) {
	t.Helper()
	jwtUtil, err := utils.NewJWTUtil("test-secret")
	require.NoError(t, err)
	repo := repository.NewMemoryAccountRepository()
	return NewAccountService(repo, jwtUtil), repo, jwtUtil
}

func janeRequest() model.RegisterRequest {
	return model.RegisterRequest{
		FullName: "Jane Doe",
		Username: "jane",
		Email:    "jane@x.com",
		Mobile:   "555-0100",
		Password: "Secr3t!",
	}
}

func registerJane(t *testing.T, svc AccountService) *model.Account {
	t.Helper()
	account, err := svc.Register(context.Background(), janeRequest())
	require.NoError(t, err)
	return account
}

func TestRegister(t *testing.T) {
	svc, repo, _ := newTestService(t)

	account := registerJane(t, svc)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "jane", account.Username)
	assert.NotEqual(t, "Secr3t!", account.PasswordHash)

	stored, err := repo.FindByUsername(context.Background(), "jane")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, utils.CheckPasswordHash("Secr3t!", stored.PasswordHash))
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := map[string]func(*model.RegisterRequest){
		"fullName": func(r *model.RegisterRequest) { r.FullName = "" },
		"username": func(r *model.RegisterRequest) { r.Username = "   " },
		"email":    func(r *model.RegisterRequest) { r.Email = "" },
		"mobile":   func(r *model.RegisterRequest) { r.Mobile = "" },
		"password": func(r *model.RegisterRequest) { r.Password = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := janeRequest()
			mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerJane(t, svc)

	other := model.RegisterRequest{
		FullName: "Someone Else",
		Username: "jane",
		Email:    "other@x.com",
		Mobile:   "555-0199",
		Password: "different",
	}
	_, err := svc.Register(context.Background(), other)

	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := janeRequest()
	req.Password = strings.Repeat("x", utils.MaxPasswordBytes+1)

	_, err := svc.Register(context.Background(), req)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _, jwtUtil := newTestService(t)
	registered := registerJane(t, svc)

	account, token, err := svc.Login(context.Background(), "jane", "Secr3t!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, account.ID)

	claims, err := jwtUtil.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.AccountID)
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerJane(t, svc)

	_, _, err := svc.Login(context.Background(), "jane", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "Secr3t!")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, _, err = svc.Login(context.Background(), "", "Secr3t!")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, jwtUtil := newTestService(t)
	registered := registerJane(t, svc)

	account, token, err := svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", model.ProfileUpdate{
		Email: strPtr("new@x.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", account.Email)
	assert.Equal(t, "Jane Doe", account.FullName)
	assert.Equal(t, "555-0100", account.Mobile)

	claims, err := jwtUtil.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", claims.Email)

	stored, _ := repo.FindByID(context.Background(), registered.ID)
	assert.Equal(t, "new@x.com", stored.Email)
	assert.Equal(t, registered.PasswordHash, stored.PasswordHash)
}

func TestUpdateProfile_WrongPasswordLeavesAccountUntouched(t *testing.T) {
	svc, repo, _ := newTestService(t)
	registered := registerJane(t, svc)
	before, _ := repo.FindByID(context.Background(), registered.ID)

	_, _, err := svc.UpdateProfile(context.Background(), registered.ID, "wrong", model.ProfileUpdate{
		Email:    strPtr("new@x.com"),
		Password: strPtr("hijacked"),
	})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	after, _ := repo.FindByID(context.Background(), registered.ID)
	assert.Equal(t, before, after)
}

func TestUpdateProfile_ChangePassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	registered := registerJane(t, svc)

	_, _, err := svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", model.ProfileUpdate{
		Password: strPtr("N3wSecret"),
	})
	require.NoError(t, err)

	stored, _ := repo.FindByID(context.Background(), registered.ID)
	assert.NotEqual(t, "N3wSecret", stored.PasswordHash)

	_, _, err = svc.Login(context.Background(), "jane", "Secr3t!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "jane", "N3wSecret")
	assert.NoError(t, err)
}

func TestUpdateProfile_NoChangesBoundary(t *testing.T) {
	svc, repo, _ := newTestService(t)
	registered := registerJane(t, svc)

	// An empty update set is rejected
	_, _, err := svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", model.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.ErrorIs(t, err, ErrValidation)

	updates := model.ProfileUpdate{Email: strPtr("new@x.com")}
	_, _, err = svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", updates)
	require.NoError(t, err)
	first, _ := repo.FindByID(context.Background(), registered.ID)

	// Resubmitting identical values succeeds without writing
	account, token, err := svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", updates)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "new@x.com", account.Email)

	second, _ := repo.FindByID(context.Background(), registered.ID)
	assert.Equal(t, first, second)
}

func TestUpdateProfile_UsernameTaken(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered := registerJane(t, svc)
	other := janeRequest()
	other.Username = "john"
	_, err := svc.Register(context.Background(), other)
	require.NoError(t, err)

	_, _, err = svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", model.ProfileUpdate{
		Username: strPtr("john"),
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUpdateProfile_EmptyField(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered := registerJane(t, svc)

	_, _, err := svc.UpdateProfile(context.Background(), registered.ID, "Secr3t!", model.ProfileUpdate{
		FullName: strPtr(" "),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProfile_UnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.UpdateProfile(context.Background(), "0e5b8f5c-5d0a-4d4e-8c36-6f53f1d9a2b7", "Secr3t!", model.ProfileUpdate{
		Email: strPtr("new@x.com"),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, _, err = svc.UpdateProfile(context.Background(), "not-a-uuid", "Secr3t!", model.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered := registerJane(t, svc)

	account, err := svc.UpdateAccount(context.Background(), registered.ID, registered.ID, model.AccountUpdate{
		Mobile: strPtr("555-0111"),
	})
	require.NoError(t, err)
	assert.Equal(t, "555-0111", account.Mobile)

	_, err = svc.UpdateAccount(context.Background(), registered.ID, registered.ID, model.AccountUpdate{
		Password: strPtr("sneaky"),
	})
	assert.ErrorIs(t, err, ErrPasswordChange)

	unknown := "0e5b8f5c-5d0a-4d4e-8c36-6f53f1d9a2b7"
	_, err = svc.UpdateAccount(context.Background(), unknown, unknown, model.AccountUpdate{
		Mobile: strPtr("555-0111"),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateAccount_OtherOwner(t *testing.T) {
	svc, repo, _ := newTestService(t)
	jane := registerJane(t, svc)

	mallory := janeRequest()
	mallory.Username = "mallory"
	mallory.Email = "mallory@x.com"
	intruder, err := svc.Register(context.Background(), mallory)
	require.NoError(t, err)

	_, err = svc.UpdateAccount(context.Background(), intruder.ID, jane.ID, model.AccountUpdate{
		Username: strPtr("jane2"),
		Email:    strPtr("mallory@evil.com"),
	})
	assert.ErrorIs(t, err, ErrNotAccountOwner)

	_, err = svc.UpdateAccount(context.Background(), "", jane.ID, model.AccountUpdate{Mobile: strPtr("1")})
	assert.ErrorIs(t, err, ErrNotAccountOwner)

	stored, err := repo.FindByID(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", stored.Username)
	assert.Equal(t, "jane@x.com", stored.Email)
}

func TestDeleteAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered := registerJane(t, svc)

	deleted, err := svc.DeleteAccount(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", deleted.Username)

	_, err = svc.DeleteAccount(context.Background(), registered.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, _, err = svc.Login(context.Background(), "jane", "Secr3t!")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountLifecycle(t *testing.T) {
	svc, _, jwtUtil := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, janeRequest())
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", registered.View().Email)

	_, loginToken, err := svc.Login(ctx, "jane", "Secr3t!")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "jane", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	updated, rotated, err := svc.UpdateProfile(ctx, registered.ID, "Secr3t!", model.ProfileUpdate{Email: strPtr("new@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", updated.Email)

	// The old token is still valid; there is no revocation
	_, err = jwtUtil.ValidateToken(loginToken)
	assert.NoError(t, err)
	_, err = jwtUtil.ValidateToken(rotated)
	assert.NoError(t, err)

	_, err = svc.DeleteAccount(ctx, registered.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "jane", "anything")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

type failingRepo struct {
	repository.AccountRepository
}

func (failingRepo) FindByUsername(context.Context, string) (*model.Account, error) {
	return nil, errors.New("connection refused")
}

func TestRegister_RepositoryFailure(t *testing.T) {
	jwtUtil, err := utils.NewJWTUtil("test-secret")
	require.NoError(t, err)
	svc := NewAccountService(failingRepo{repository.NewMemoryAccountRepository()}, jwtUtil)

	_, err = svc.Register(context.Background(), janeRequest())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
}
