package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/util"
)

type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL(),
	}
}

// Issue signs a session token for username carrying its roles.
func (s *JWTService) Issue(username string, roles []string) (string, error) {
	now := time.Now()
	if roles == nil {
		roles = []string{}
	}

	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", util.LogError("[JWTService] sign token", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and the nbf/exp window and returns the principal.
// A missing or malformed token yields model.ErrUnauthenticated, any other
// failure model.ErrInvalidToken.
func (s *JWTService) Verify(tokenStr string) (*model.Principal, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, model.ErrUnauthenticated
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", model.ErrInvalidToken)
	}

	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return &model.Principal{Username: claims.Subject, Roles: roles}, nil
}
