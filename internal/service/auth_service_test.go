package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

type fakeEmailService struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeEmailService) SendResetToken(toEmail, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, toEmail)
	return nil
}

func newAuthFixture() (*fakeUow, *fakeEmailService, IAuthService) {
	uow := newFakeUow()
	email := &fakeEmailService{}
	svc := NewAuthService(&fakeFactory{uow: uow}, email, nil)
	return uow, email, svc
}

func activeUser(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	hashStr := string(hash)
	return &entity.User{
		Id:           uuid.New(),
		Email:        "user@example.com",
		FullName:     "Test User",
		PasswordHash: &hashStr,
		Role:         entity.UserRoleUser,
		Status:       entity.UserStatusActive,
	}
}

func TestRegister(t *testing.T) {
	uow, _, svc := newAuthFixture()

	res, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "new@example.com",
		Password: "secret123",
		FullName: "New User",
	})
	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", res.Email)

	if assert.Len(t, uow.users.created, 1) {
		created := uow.users.created[0]
		assert.Equal(t, entity.UserStatusActive, created.Status)
		// The stored hash must not be the raw password.
		assert.NotNil(t, created.PasswordHash)
		assert.NotEqual(t, "secret123", *created.PasswordHash)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uow, _, svc := newAuthFixture()
	uow.users.findOneResult = activeUser(t, "whatever")

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "user@example.com",
		Password: "secret123",
		FullName: "Dup",
	})
	assert.Error(t, err)
	assert.Empty(t, uow.users.created)
}

func TestLogin(t *testing.T) {
	uow, _, svc := newAuthFixture()
	uow.users.findOneResult = activeUser(t, "secret123")

	res, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "user@example.com",
		Password: "secret123",
	}, "127.0.0.1", "test-agent")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken, "no refresh token without remember_me")
	assert.Equal(t, "user@example.com", res.User.Email)
}

func TestLoginRememberMeIssuesRefreshToken(t *testing.T) {
	uow, _, svc := newAuthFixture()
	uow.users.findOneResult = activeUser(t, "secret123")

	res, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:      "user@example.com",
		Password:   "secret123",
		RememberMe: true,
	}, "127.0.0.1", "test-agent")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)

	if assert.Len(t, uow.users.refreshTokens, 1) {
		stored := uow.users.refreshTokens[0]
		// Only the hash is persisted, never the raw token.
		assert.NotEqual(t, res.RefreshToken, stored.TokenHash)
		assert.Equal(t, "test-agent", stored.UserAgent)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	uow, _, svc := newAuthFixture()
	uow.users.findOneResult = activeUser(t, "secret123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "user@example.com",
		Password: "wrong",
	}, "", "")
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginUnknownUser(t *testing.T) {
	_, _, svc := newAuthFixture()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@example.com",
		Password: "secret123",
	}, "", "")
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginOAuthOnlyAccount(t *testing.T) {
	uow, _, svc := newAuthFixture()
	user := activeUser(t, "secret123")
	user.PasswordHash = nil
	uow.users.findOneResult = user

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "user@example.com",
		Password: "secret123",
	}, "", "")
	assert.EqualError(t, err, "user registered via OAuth")
}

func TestLogoutRevokesTokenHash(t *testing.T) {
	uow, _, svc := newAuthFixture()

	err := svc.Logout(context.Background(), "raw-refresh-token")
	assert.NoError(t, err)
	if assert.Len(t, uow.users.revokedHashes, 1) {
		assert.NotEqual(t, "raw-refresh-token", uow.users.revokedHashes[0])
	}
}

func TestForgotPasswordUnknownEmailStaysSilent(t *testing.T) {
	uow, email, svc := newAuthFixture()

	err := svc.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "ghost@example.com"})
	assert.NoError(t, err)
	assert.Empty(t, uow.users.resetTokens)
	assert.Empty(t, email.sent)
}

func TestResetPassword(t *testing.T) {
	uow, _, svc := newAuthFixture()
	tokenId := uuid.New()
	userId := uuid.New()
	uow.users.resetToken = &entity.PasswordResetToken{
		Id:        tokenId,
		UserId:    userId,
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	err := svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:           "reset-token",
		NewPassword:     "newsecret1",
		ConfirmPassword: "newsecret1",
	})
	assert.NoError(t, err)
	assert.True(t, uow.committed)
	assert.Contains(t, uow.users.passwordSet, userId)
	assert.Equal(t, []uuid.UUID{tokenId}, uow.users.tokensUsed)
}

func TestResetPasswordUsedToken(t *testing.T) {
	uow, _, svc := newAuthFixture()
	uow.users.resetToken = &entity.PasswordResetToken{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Token:     "reset-token",
		Used:      true,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	err := svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:           "reset-token",
		NewPassword:     "newsecret1",
		ConfirmPassword: "newsecret1",
	})
	assert.Error(t, err)
	assert.Empty(t, uow.users.passwordSet)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	uow, _, svc := newAuthFixture()
	uow.users.resetToken = &entity.PasswordResetToken{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Token:     "reset-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	err := svc.ResetPassword(context.Background(), &dto.ResetPasswordRequest{
		Token:           "reset-token",
		NewPassword:     "newsecret1",
		ConfirmPassword: "newsecret1",
	})
	assert.Error(t, err)
	assert.Empty(t, uow.users.passwordSet)
}
