// Package jwt verifies the access tokens issued by the identity service. The rental API never
// issues tokens to clients; Sign exists for service-to-service tooling and tests.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"rental/config"
	"rental/infras/otel"
	"rental/shared/constant"
	"rental/shared/timezone"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claim")
)

type TokenType string

const (
	AccessToken TokenType = "access"
)

const bearerPrefix = "Bearer "

type Claims struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role,omitempty"`
	TokenID string    `json:"token_id"`
	Type    TokenType `json:"type"`
	jwt.RegisteredClaims
}

type JWT interface {
	ValidateToken(ctx context.Context, tokenString string, tokenType TokenType) (*Claims, error)
	Sign(claims Claims, ttl time.Duration) (string, error)
}

type Service struct {
	config *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, otel otel.Otel) JWT {
	return &Service{
		config: cfg,
		otel:   otel,
	}
}

// Sign fills the registered claims from the custom ones and signs with the access secret.
func (s *Service) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := timezone.Now()

	if claims.TokenID == constant.Empty {
		claims.TokenID = uuid.NewString()
	}

	if claims.Type == constant.Empty {
		claims.Type = AccessToken
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    s.config.JWT.Issuer,
		Subject:   claims.UserID,
		ID:        claims.TokenID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWT.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) ValidateToken(ctx context.Context, tokenString string, tokenType TokenType) (claims *Claims, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelHandlerScopeName, "jwt.ValidateToken")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(time.Duration(s.config.JWT.LeewaySeconds) * time.Second),
		jwt.WithTimeFunc(timezone.Now),
	}

	if s.config.JWT.Issuer != constant.Empty {
		options = append(options, jwt.WithIssuer(s.config.JWT.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWT.AccessSecret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}

		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != tokenType {
		return nil, ErrInvalidClaim
	}

	if claims.UserID == constant.Empty {
		claims.UserID = claims.Subject
	}

	scope.SetAttribute("jwt.token_id", claims.TokenID)

	return claims, nil
}

func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == constant.Empty {
		return "", errors.New("authorization header is required")
	}

	token, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok || strings.TrimSpace(token) == constant.Empty {
		return "", errors.New("authorization header must start with 'Bearer '")
	}

	return strings.TrimSpace(token), nil
}
