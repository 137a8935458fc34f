package services

import (
	"clipchat/auth"
	"clipchat/errors"
	"clipchat/repositories"
	"clipchat/session"
	"fmt"
)

type IAuthService interface {
	Register(username, password, confirm string) (Token, error)
	Login(username, password string) (Token, error)
	Logout()
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenIssuer
	session        *session.Session
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenIssuer, sess *session.Session) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens, session: sess}
}

func (s *AuthService) Register(username, password, confirm string) (Token, error) {
	valReq := auth.SignupRequest{
		Username: username,
		Password: password,
		Confirm:  confirm,
	}

	// 1. Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateSignup(valReq); err != nil {
		return "", err
	}

	// 2. Hash the password. Done in the service layer so the repository
	// never sees a plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Generate the identity keypair. The public hex becomes the handle
	// everything else keys on; the private half never reaches a store.
	keyPair, err := auth.NewKeyPair()
	if err != nil {
		return "", fmt.Errorf("keypair generation failed: %w", err)
	}

	// 4. Persist. Propagates ErrDuplicateUsername when the name is taken.
	user, err := s.userRepository.CreateUser(username, keyPair.PublicKeyHex, hashedPassword)
	if err != nil {
		return "", err
	}

	// 5. Issue the session token and occupy the session slot.
	token, err := s.tokens.Generate(user.PublicKeyHex, user.Username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	s.session.Login(user.PublicKeyHex, user.Username)

	return Token(token), nil
}

func (s *AuthService) Login(username, password string) (Token, error) {
	// 1. Oldest-first scan; an unknown username is its own failure,
	// distinct from a wrong password.
	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		return "", err
	}

	// 2. Compare the provided password with the stored hash. A compare
	// error means the stored record is corrupt, not that the password
	// is wrong.
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("%w: stored hash unreadable: %v", errors.ErrStorage, err)
	}
	if !match {
		return "", errors.ErrIncorrectPassword
	}

	// 3. Issue the token and occupy the session slot.
	token, err := s.tokens.Generate(user.PublicKeyHex, user.Username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	s.session.Login(user.PublicKeyHex, user.Username)

	return Token(token), nil
}

func (s *AuthService) Logout() {
	s.session.Logout()
}
