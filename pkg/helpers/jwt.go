package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the signature checked out but the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures and undecodable tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenMalformed means a verified token is missing its subject claim.
	ErrTokenMalformed = errors.New("token missing subject")
)

// JWTManager issues and verifies HS256 tokens signed with one process-wide
// secret loaded at startup. These tokens are independent of the identity
// provider's own session tokens.
type JWTManager struct {
	Secret    []byte
	AccessTTL time.Duration
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), AccessTTL: accessTTL}
}

// Issue produces a signed token encoding subject and an absolute expiry.
// A ttl of zero falls back to the configured access TTL.
func (m *JWTManager) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl == 0 {
		ttl = m.AccessTTL
	}
	exp := time.Now().Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Verify validates the signature and expiry and returns the subject.
// Nothing from an unverified token is ever returned.
func (m *JWTManager) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !tkn.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
