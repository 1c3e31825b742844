package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/internal/model"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims is the token body issued by the identity service.
type Claims struct {
	Role     model.Role                `json:"role"`
	Subjects []model.SubjectAssignment `json:"subjects,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts verified claims into the identity used by the services.
func (c *Claims) Caller() model.Caller {
	return model.Caller{ID: c.Subject, Role: c.Role, Subjects: c.Subjects}
}

// TokenManager verifies HS256 bearer tokens. Issue exists for the token
// command and tests; real tokens come from the identity service.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(cfg *config.Config) (*TokenManager, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{secret: []byte(cfg.Auth.JWTSecret), issuer: cfg.Auth.Issuer}, nil
}

func (m *TokenManager) Issue(caller model.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     caller.Role,
		Subjects: caller.Subjects,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	switch claims.Role {
	case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
