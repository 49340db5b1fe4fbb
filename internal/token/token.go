// Package token signs and verifies the JWTs used by the application: the
// session token returned at login and the self-contained registration token
// carried in the verification email.
package token

import (
	"fmt"
	"strings"
	"time"

	"forum/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "forum-api"
	audience = "forum-client"

	// SessionTTL is the lifetime of a login session token.
	SessionTTL = time.Hour * 24 * 7
	// RegistrationTTL is the lifetime of an email verification token.
	RegistrationTTL = time.Hour * 24
)

// Registration is the pending-signup payload embedded in a verification
// token. The user does not exist until the token is redeemed.
type Registration struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Credentials models.Credentials `json:"credentials"`
}

type registrationClaims struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Credentials models.Credentials `json:"credentials"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Codec signs and verifies application tokens with a shared HMAC secret.
type Codec struct {
	secret []byte
}

// NewCodec returns a Codec using the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

func registeredClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        generateJTI(),
	}
}

// SignRegistration produces a verification token carrying the pending signup.
func (c *Codec) SignRegistration(reg Registration) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	claims := registrationClaims{
		Name:             reg.Name,
		Email:            reg.Email,
		Credentials:      reg.Credentials,
		RegisteredClaims: registeredClaims(RegistrationTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// VerifyRegistration validates the token and extracts the pending signup.
// Verification is fail-closed: any parse, signature, expiry, or missing-field
// problem yields an error, never a partial payload.
func (c *Codec) VerifyRegistration(tokenString string) (*Registration, error) {
	claims := &registrationClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid registration token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid registration token")
	}
	if strings.TrimSpace(claims.Name) == "" || strings.TrimSpace(claims.Email) == "" ||
		claims.Credentials.Hash == "" || claims.Credentials.Salt == "" {
		return nil, fmt.Errorf("registration token is missing required fields")
	}
	return &Registration{
		Name:        claims.Name,
		Email:       claims.Email,
		Credentials: claims.Credentials,
	}, nil
}

// SignSession produces a login session token for the user.
func (c *Codec) SignSession(userID, username string) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	rc := registeredClaims(SessionTTL)
	rc.Subject = userID
	claims := sessionClaims{
		Username:         username,
		RegisteredClaims: rc,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// VerifySession validates a session token and returns the user id and name.
func (c *Codec) VerifySession(tokenString string) (userID, username string, err error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return "", "", fmt.Errorf("invalid session token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", "", fmt.Errorf("invalid session token")
	}
	return claims.Subject, claims.Username, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}
