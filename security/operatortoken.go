package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer    = "iarasync"
	SecretEnv = "IARA_SIGNING_SECRET"

	ScopeSync = "sync"
)

// Operator identifies who asked for a run over HTTP.
type Operator struct {
	Name  string `json:"unique_name"`
	Scope string `json:"scope"`
}

type OperatorClaims struct {
	Operator
	jwt.RegisteredClaims
}

// DecodeSecret decodes a base64 signing secret.
func DecodeSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	return secret, nil
}

// SecretFromEnv reads and decodes IARA_SIGNING_SECRET.
func SecretFromEnv() ([]byte, error) {
	return DecodeSecret(os.Getenv(SecretEnv))
}

func CreateOperatorToken(operator Operator, secret []byte, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   operator.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	// HS256, shared secret
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseOperatorToken validates signature, expiry and issuer.
func ParseOperatorToken(tokenStr string, secret []byte) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
