package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vhu/portal/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenIssuer = "vhu-portal"

// AuthService issues and verifies HS256 bearer tokens. Accounts live in
// the identity system that signs in users; only the claims matter here.
type AuthService struct {
	secret []byte
	expiry time.Duration
}

type claims struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		secret: []byte(jwtSecret),
		expiry: jwtExpiry,
	}
}

func (s *AuthService) GenerateJWT(p *model.Principal) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: p.UserID,
		Roles:  p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprint(p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyJWT checks signature and expiry and returns the principal the
// token was issued for.
func (s *AuthService) VerifyJWT(tokenString string) (*model.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	return &model.Principal{UserID: c.UserID, Roles: c.Roles}, nil
}
