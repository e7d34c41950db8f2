package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Settings struct {
	Secret   string
	Issuer   string
	Audience string
	Expires  time.Duration
}

// Claims are the JWT claims issued to API users.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(subject string, roles []string, settings Settings) (string, error) {
	now := time.Now()
	claims := &Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    settings.Issuer,
			Audience:  jwt.ClaimStrings{settings.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(settings.Expires)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(settings.Secret))
}

// Issuer signs tokens with fixed settings.
type Issuer struct {
	settings Settings
}

func NewIssuer(settings Settings) *Issuer {
	return &Issuer{settings: settings}
}

func (i *Issuer) GenerateToken(subject string, roles []string) (string, error) {
	return GenerateToken(subject, roles, i.settings)
}
