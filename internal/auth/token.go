package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"invoice-settlement/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type Claims struct {
	Role models.RoleType `json:"role"`
	Name string          `json:"name"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id stored in the subject claim.
func (c *Claims) UserID() uint64 {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return id
}

func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID(), Role: c.Role, Name: c.Name}
}

// IssueToken signs an HS256 token for user. The returned claims carry the
// token id used for revocation.
func IssueToken(cfg TokenConfig, user *models.User, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(user.ID, 10),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken validates the signature, issuer and expiry of a bearer token.
func ParseToken(cfg TokenConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() || claims.UserID() == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
