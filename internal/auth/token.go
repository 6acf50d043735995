// Package auth issues and verifies the session tokens that bind a
// websocket connection to a seat in a room. Tokens are HS256-signed and
// carry the room id and player name; the socket handler trusts only the
// token, never the query string, for identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "spotup-games"

// DefaultTokenTTL bounds how long a seat token stays valid.
const DefaultTokenTTL = 12 * time.Hour

var (
	ErrTokenInvalid = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
)

// SessionClaims is what a verified token asserts about its bearer.
type SessionClaims struct {
	RoomID uuid.UUID
	Player string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	RoomID string `json:"room_id"`
	Player string `json:"player"`
}

// TokenIssuer signs and verifies seat tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A zero ttl falls back to
// DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue mints a token for one player's seat in one room.
func (ti *TokenIssuer) Issue(roomID uuid.UUID, player string) (string, error) {
	if player == "" {
		return "", errors.New("player name must not be empty")
	}
	now := ti.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   player,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			ID:        uuid.NewString(),
		},
		RoomID: roomID.String(),
		Player: player,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the seat it grants.
func (ti *TokenIssuer) Verify(raw string) (SessionClaims, error) {
	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	roomID, err := uuid.Parse(parsed.RoomID)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: bad room id", ErrTokenInvalid)
	}
	if parsed.Player == "" {
		return SessionClaims{}, fmt.Errorf("%w: missing player", ErrTokenInvalid)
	}
	return SessionClaims{RoomID: roomID, Player: parsed.Player}, nil
}
