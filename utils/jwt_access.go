package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ResetTokenIssuer   = "notecheck"
	ResetTokenAudience = "notes-reset"
)

// ErrResetSecretMissing is returned when a token is requested without a secret.
var ErrResetSecretMissing = errors.New("reset secret is not set")

// MintResetToken signs a short lived HS256 token that authorizes the bulk reset endpoint.
func MintResetToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrResetSecretMissing
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    ResetTokenIssuer,
		Audience:  jwt.ClaimStrings{ResetTokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// VerifyResetToken checks signature, issuer, audience and expiry.
func VerifyResetToken(secret, tokenString string) error {
	if secret == "" {
		return ErrResetSecretMissing
	}

	_, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(ResetTokenIssuer),
		jwt.WithAudience(ResetTokenAudience),
		jwt.WithExpirationRequired(),
	)
	return err
}
