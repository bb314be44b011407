package service

import (
	"fmt"

	"harvest-settlement/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseTokenService implements ports.TokenService for Supabase-issued HS256 access tokens.
// Tokens are only verified here; issuing them is Supabase Auth's job.
type SupabaseTokenService struct {
	secret []byte
	issuer string
}

// NewSupabaseTokenService creates a token verifier. An empty issuer skips the iss check.
func NewSupabaseTokenService(secret string, issuer string) *SupabaseTokenService {
	return &SupabaseTokenService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Validate parses and validates a JWT token, returning the claims.
func (s *SupabaseTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("jwt secret not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" && role != "service_role" {
		return nil, fmt.Errorf("missing subject claim")
	}
	email, _ := claims["email"].(string)

	var appRole string
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		appRole, _ = meta["role"].(string)
	}

	return &ports.TokenClaims{
		Subject: sub,
		Email:   email,
		Role:    role,
		AppRole: appRole,
	}, nil
}
