package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CodeSender delivers a freshly issued confirmation code to the user,
// out-of-band of the signup response. Implementations: the AMQP publisher
// (production) and the SMTP mailer (brokerless setups).
type CodeSender interface {
	SendConfirmationCode(email, username, code string) error
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// AuthService handles the signup/confirmation-code/token state machine.
type AuthService struct {
	userRepo   repositories.UserRepository
	sender     CodeSender
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sender CodeSender, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		sender:     sender,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
	}
}

// SignUp registers an identity or rotates the confirmation code of an
// existing one. Signing up again with the same (username, email) pair is
// idempotent: it regenerates the code instead of failing. A username taken
// by a different email, or an email taken by a different username, is an
// identity conflict. Code delivery failure is logged but does not fail the
// signup, matching the legacy contract.
func (s *AuthService) SignUp(username, email string) error {
	if strings.EqualFold(username, "me") {
		return apperrors.ErrReservedUsername
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username may only contain letters, digits and @/./+/-/_: %w", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByUsername(username)
	switch {
	case err == nil:
		if user.Email != email {
			return apperrors.ErrIdentityConflict
		}
	case errors.Is(err, apperrors.ErrNotFound):
		if existing, emailErr := s.userRepo.GetByEmail(email); emailErr == nil && existing != nil {
			return apperrors.ErrIdentityConflict
		}
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
		if createErr := s.userRepo.Create(user); createErr != nil {
			// A concurrent signup may have won the unique-index race;
			// Create already reports that as ErrIdentityConflict.
			return createErr
		}
	default:
		return err
	}

	code := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash confirmation code: %w", err)
	}
	user.ConfirmationCode = string(hash)
	if err := s.userRepo.Save(user); err != nil {
		return fmt.Errorf("failed to store confirmation code: %w", err)
	}

	if s.sender != nil {
		if err := s.sender.SendConfirmationCode(email, username, code); err != nil {
			log.Printf("Warning: failed to deliver confirmation code to %s: %v", email, err)
		}
	} else {
		log.Println("No confirmation code sender configured. Skipping delivery.")
	}
	return nil
}

// IssueToken exchanges a confirmation code for a bearer token. A wrong
// code does not consume the stored one, so the caller may retry with the
// correct code.
func (s *AuthService) IssueToken(username, confirmationCode string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrUnknownUser
		}
		return "", err
	}

	if user.ConfirmationCode == "" {
		return "", apperrors.ErrInvalidConfirmationCode
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCode), []byte(confirmationCode)); err != nil {
		return "", apperrors.ErrInvalidConfirmationCode
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":      time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
