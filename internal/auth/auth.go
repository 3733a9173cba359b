package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/condorlabs/comprobantes/internal"
)

// TokenGenerator creates and validates the tokens the API hands out.
type TokenGenerator interface {
	GenerateAccessToken(userID, clientID string) (string, error)
	GenerateRefreshToken(userID, clientID string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims carries the authenticated identity: the user and the client
// company they act for.
type Claims struct {
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func NewJWTTokenGenerator(secret string, accessTTL time.Duration) *JWTTokenGenerator {
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTTokenGenerator{
		Secret:          []byte(secret),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 24 * 7 * time.Hour,
	}
}

func (g *JWTTokenGenerator) GenerateAccessToken(userID, clientID string) (string, error) {
	return g.generate(userID, clientID, g.AccessTokenTTL)
}

func (g *JWTTokenGenerator) GenerateRefreshToken(userID, clientID string) (string, error) {
	return g.generate(userID, clientID, g.RefreshTokenTTL)
}

func (g *JWTTokenGenerator) generate(userID, clientID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
}

func (g *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal.ErrInvalidToken
		}
		return g.Secret, nil
	})
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
