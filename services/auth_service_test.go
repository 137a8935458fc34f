package services

import (
	"clipchat/auth"
	"clipchat/domain"
	"clipchat/errors"
	"clipchat/mocks"
	"clipchat/session"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAuthFixture(t *testing.T) (*mocks.MockIUserRepository, *session.Session, IAuthService, *auth.TokenIssuer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	sess := session.New()
	issuer := auth.NewTokenIssuer("unit-test-secret", 24*time.Hour)
	return mockRepo, sess, NewAuthService(mockRepo, issuer, sess), issuer
}

func TestAuthService_Register(t *testing.T) {
	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		mockRepo, sess, svc, issuer := newAuthFixture(t)
		password := "ComplexPass123!"

		// CreateUser receives a derived public key and a hash, never the
		// plain password
		mockRepo.EXPECT().
			CreateUser("alice", gomock.Not("alice"), gomock.Not(password)).
			DoAndReturn(func(username, publicKeyHex, passwordHash string) (domain.User, error) {
				return domain.User{Username: username, PublicKeyHex: publicKeyHex, PasswordHash: passwordHash}, nil
			}).
			Times(1)

		token, err := svc.Register("alice", password, password)
		req.NoError(err)
		req.NotEmpty(token)

		claims, err := issuer.Validate(string(token))
		req.NoError(err)
		req.Equal("alice", claims.Username)
		req.Len(claims.PublicKeyHex, 64)

		current, ok := sess.Current()
		req.True(ok)
		req.Equal(claims.PublicKeyHex, current)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)
		mockRepo, sess, svc, _ := newAuthFixture(t)

		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register("alice", "simple", "simple")
		req.ErrorIs(err, errors.ErrInvalidPassword)

		_, ok := sess.Current()
		req.False(ok)
	})

	t.Run("should fail when confirmation differs", func(t *testing.T) {
		req := require.New(t)
		mockRepo, _, svc, _ := newAuthFixture(t)

		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register("alice", "ComplexPass123!", "ComplexPass124!")
		req.ErrorIs(err, errors.ErrPasswordMismatch)
	})

	t.Run("should fail when username already exists", func(t *testing.T) {
		req := require.New(t)
		mockRepo, sess, svc, _ := newAuthFixture(t)

		mockRepo.EXPECT().
			CreateUser("alice", gomock.Any(), gomock.Any()).
			Return(domain.User{}, errors.ErrDuplicateUsername).
			Times(1)

		_, err := svc.Register("alice", "ComplexPass123!", "ComplexPass123!")
		req.ErrorIs(err, errors.ErrDuplicateUsername)

		_, ok := sess.Current()
		req.False(ok)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		mockRepo, sess, svc, issuer := newAuthFixture(t)
		password := "Secret123456!"

		hashedPassword, err := auth.HashPassword(password)
		req.NoError(err)
		storedUser := domain.User{
			Username:     "alice",
			PublicKeyHex: "aaaa1111",
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().GetUserByUsername("alice").Return(storedUser, nil).Times(1)

		token, err := svc.Login("alice", password)
		req.NoError(err)

		claims, err := issuer.Validate(string(token))
		req.NoError(err)
		req.Equal("aaaa1111", claims.PublicKeyHex)

		current, ok := sess.Current()
		req.True(ok)
		req.Equal("aaaa1111", current)
	})

	t.Run("should fail with incorrect password, not user not found", func(t *testing.T) {
		req := require.New(t)
		mockRepo, sess, svc, _ := newAuthFixture(t)

		hashedPassword, err := auth.HashPassword("CorrectPassword123!")
		req.NoError(err)
		storedUser := domain.User{Username: "alice", PasswordHash: hashedPassword}

		mockRepo.EXPECT().GetUserByUsername("alice").Return(storedUser, nil).Times(1)

		_, err = svc.Login("alice", "WrongPassword123!")
		req.ErrorIs(err, errors.ErrIncorrectPassword)
		req.NotErrorIs(err, errors.ErrUserNotFound)

		_, ok := sess.Current()
		req.False(ok)
	})

	t.Run("should report a corrupt stored hash as a storage failure", func(t *testing.T) {
		req := require.New(t)
		mockRepo, sess, svc, _ := newAuthFixture(t)

		storedUser := domain.User{Username: "alice", PasswordHash: "not-an-argon2id-hash"}
		mockRepo.EXPECT().GetUserByUsername("alice").Return(storedUser, nil).Times(1)

		_, err := svc.Login("alice", "AnyPassword123!")
		req.ErrorIs(err, errors.ErrStorage)
		req.NotErrorIs(err, errors.ErrIncorrectPassword)

		_, ok := sess.Current()
		req.False(ok)
	})

	t.Run("should fail with user not found for unknown username", func(t *testing.T) {
		req := require.New(t)
		mockRepo, _, svc, _ := newAuthFixture(t)

		mockRepo.EXPECT().
			GetUserByUsername("bob").
			Return(domain.User{}, errors.ErrUserNotFound).
			Times(1)

		_, err := svc.Login("bob", "anyPassword")
		req.ErrorIs(err, errors.ErrUserNotFound)
	})
}

func TestAuthService_Logout(t *testing.T) {
	req := require.New(t)
	_, sess, svc, _ := newAuthFixture(t)

	sess.Login("aaaa1111", "alice")
	svc.Logout()

	_, ok := sess.Current()
	req.False(ok)
}
