package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/groupcal-api/internal/models"
	appErrors "github.com/noah-isme/groupcal-api/pkg/errors"
)

type authDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthConfig defines how access tokens from the identity service are verified.
type AuthConfig struct {
	AccessTokenSecret string
	Issuer            string
	Audience          []string
}

// AuthService verifies access tokens and attaches the caller's directory membership.
type AuthService struct {
	directory authDirectory
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(directory authDirectory, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{directory: directory, logger: logger, config: config}
}

// ValidateToken parses an HS256 access token and checks issuer and audience when configured.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if len(s.config.Audience) > 0 && !audienceMatches(claims.Audience, s.config.Audience) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token audience not accepted")
	}
	return claims, nil
}

// Authenticate validates the token and replaces role and site with the directory entry,
// so role changes and removals apply without waiting for token expiry. Callers that have not
// joined a site yet keep empty role and site.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if s.directory == nil {
		return claims, nil
	}

	user, err := s.directory.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			claims.Role = ""
			claims.Site = ""
			return claims, nil
		}
		return nil, appErrors.Internal(err, "failed to load directory entry")
	}
	claims.Role = user.Role
	claims.Site = user.Site
	if user.DisplayName != "" {
		claims.FullName = user.DisplayName
	}
	return claims, nil
}

func audienceMatches(got jwt.ClaimStrings, accepted []string) bool {
	for _, aud := range got {
		if slices.Contains(accepted, aud) {
			return true
		}
	}
	return false
}
