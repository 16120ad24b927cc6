package service

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/postgraph/internal/common/clock"
	"github.com/AlibekovAA/postgraph/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

// TokenIssuer signs HS256 tokens carrying sub and iat only. Tokens never
// expire and cannot be revoked.
type TokenIssuer struct {
	jwtSecret []byte
	clock     clock.Clock
}

func NewTokenIssuer(jwtSecret string, clock clock.Clock) *TokenIssuer {
	return &TokenIssuer{
		jwtSecret: []byte(jwtSecret),
		clock:     clock,
	}
}

func (ti *TokenIssuer) IssueToken(userID userdomain.ID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": ti.clock.Now().Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(ti.jwtSecret)
	if err != nil {
		return "", err
	}

	incrementAccessTokensIssued()
	return tokenString, nil
}

func (ti *TokenIssuer) VerifyToken(tokenString string) (userdomain.ID, error) {
	incrementJWTValidations()

	claims, err := jwtverify.ParseToken(tokenString, ti.jwtSecret)
	if err != nil {
		incrementJWTValidationsFailed()
		return 0, ErrInvalidCredential.WithCause(err)
	}

	id, err := userdomain.ParseID(claims.UserID)
	if err != nil {
		incrementJWTValidationsFailed()
		return 0, ErrInvalidCredential.WithCause(err)
	}
	return id, nil
}
