package auth

import (
	"fmt"
	"time"

	"github.com/campushub/campushub/internal/types"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	userIdClaim   = "user-id"
	userRoleClaim = "user-role"
	expClaim      = "exp"
)

// TokenService issues and verifies the signed tokens used for both the
// REST session cookie and realtime connection authentication.
type TokenService struct {
	signingKey []byte
}

func NewTokenService(signingKey []byte) *TokenService {
	return &TokenService{signingKey: signingKey}
}

func (ts *TokenService) Create(identity types.Identity, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim:   identity.Id,
		userRoleClaim: string(identity.Role),
		expClaim:      time.Now().Add(exp).Unix(),
	})

	return token.SignedString(ts.signingKey)
}

func (ts *TokenService) Verify(tokenString string) (types.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return ts.signingKey, nil
	})
	if err != nil {
		return types.Identity{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return types.Identity{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return types.Identity{}, fmt.Errorf("invalid token claims")
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return types.Identity{}, fmt.Errorf("invalid user id claim")
	}

	role, ok := claims[userRoleClaim].(string)
	if !ok || !types.Role(role).Valid() {
		return types.Identity{}, fmt.Errorf("invalid user role claim")
	}

	return types.Identity{Id: int(userId), Role: types.Role(role)}, nil
}

func HashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func VerifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}
