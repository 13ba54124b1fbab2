package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// ErrTokenExpired is returned by Verify for well-formed tokens past their expiry.
var ErrTokenExpired = errors.New("token expired")

// Claims identify a user session. RegisteredClaims.ID carries a unique jti so
// a rotated refresh token can be told apart from its predecessor.
type Claims struct {
	UserID    string             `json:"user_id"`
	SessionID string             `json:"session_id"`
	Role      authorization.Role `json:"role"`
	TokenType TokenType          `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshJTI       string
	ExpiresIn        int64
	RefreshExpiresAt time.Time
}

type JWTService struct {
	secret           []byte
	accessExpMinutes int
	refreshExpDays   int
	now              func() time.Time
}

func NewJWTService(secret string, accessExpMinutes, refreshExpDays int) *JWTService {
	if accessExpMinutes <= 0 {
		accessExpMinutes = 15
	}
	if refreshExpDays <= 0 {
		refreshExpDays = 7
	}
	return &JWTService{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
		refreshExpDays:   refreshExpDays,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Generate issues a fresh access/refresh pair for the session.
func (s *JWTService) Generate(userID string, sessionID string, role authorization.Role) (*TokenPair, error) {
	now := s.now()

	accessToken, err := s.sign(userID, sessionID, role, TokenTypeAccess, uuid.NewString(), now, s.AccessTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshJTI := uuid.NewString()
	refreshToken, err := s.sign(userID, sessionID, role, TokenTypeRefresh, refreshJTI, now, s.RefreshTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshJTI:       refreshJTI,
		ExpiresIn:        int64(s.AccessTTL().Seconds()),
		RefreshExpiresAt: now.Add(s.RefreshTTL()),
	}, nil
}

func (s *JWTService) sign(userID, sessionID string, role authorization.Role, typ TokenType, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses tokenString and checks that it is of the expected type.
func (s *JWTService) Verify(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("token is not a %s token", expected)
	}
	return claims, nil
}

func (s *JWTService) AccessTTL() time.Duration {
	return time.Duration(s.accessExpMinutes) * time.Minute
}

func (s *JWTService) RefreshTTL() time.Duration {
	return time.Duration(s.refreshExpDays) * 24 * time.Hour
}
