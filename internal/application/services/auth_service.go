package services

import (
	"fmt"

	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
	"github.com/alumnet/alumnet-go/pkg/config"
)

// AuthService issues and validates session tokens and checks ops credentials.
type AuthService struct {
	logger *logging.ChanneledLogger
}

func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// IssueSession creates a signed session token for a user.
func (s *AuthService) IssueSession(userID, userName string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id required", ErrInvalidContent)
	}

	token, err := security.GenerateSessionToken(userID, userName, config.JWTSecret, config.SessionTokenTTL)
	if err != nil {
		s.logger.Auth().Error("Failed to issue session token", "error", err.Error(), "userId", userID)
		return "", err
	}

	s.logger.Auth().Info("Session token issued", "userId", userID)
	return token, nil
}

// ValidateSession parses a session token and returns the embedded identity.
func (s *AuthService) ValidateSession(token string) (*security.SessionClaims, error) {
	claims, err := security.ValidateJWT(token, config.JWTSecret)
	if err != nil {
		return nil, err
	}
	return security.SessionFromClaims(claims)
}

// CheckOpsPassword verifies the ops dashboard password.
func (s *AuthService) CheckOpsPassword(password string) bool {
	ok := security.CheckOpsPassword(password, config.OpsPasswordHash)
	if !ok {
		s.logger.Auth().Warn("Ops password check failed")
	}
	return ok
}
