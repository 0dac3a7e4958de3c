package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWTSessions signs sessions with a shared HMAC secret. Sign-in tokens are JWTs signed with the
// same secret by a trusted login service; Issue re-signs them with the session lifetime.
type JWTSessions struct {
	secret []byte
	now    func() time.Time
}

func NewJWTSessions(secret string) *JWTSessions {
	return &JWTSessions{secret: []byte(secret), now: time.Now}
}

// Sign creates a token for identity that expires after expiresIn.
func (js *JWTSessions) Sign(identity *Identity, expiresIn time.Duration) (string, error) {
	now := js.now()
	claims := sessionClaims{
		Name:    identity.DisplayName,
		Email:   identity.Email,
		Picture: identity.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(js.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (js *JWTSessions) Issue(_ context.Context, token string, expiresIn time.Duration) (string, error) {
	identity, err := js.parse(token)
	if err != nil {
		return "", InvalidTokenError
	}
	return js.Sign(identity, expiresIn)
}

func (js *JWTSessions) Verify(_ context.Context, session string) (*Identity, error) {
	identity, err := js.parse(session)
	if err != nil {
		return nil, InvalidSessionError
	}
	return identity, nil
}

func (js *JWTSessions) parse(token string) (*Identity, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return js.secret, nil
	}, jwt.WithTimeFunc(js.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, InvalidSessionError
	}

	return &Identity{
		UserID:      claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
	}, nil
}
