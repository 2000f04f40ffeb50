package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/tabsplit/internal/models"
)

// Issuer is the iss claim of every backup session token.
const Issuer = "tabsplit"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Claims identify the account a backup session token was issued to.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager issues and checks HS256 session tokens for backup accounts.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager returns a manager signing with secret. Tokens expire ttl
// after they are issued.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate issues a token for account.
func (m *JWTManager) Generate(account *models.Account) (string, error) {
	issued := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		AccountID: account.ID,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer and lifetime of a token and returns its
// claims. Every failure wraps ErrInvalidToken.
func (m *JWTManager) Validate(signed string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AccountID == "" || claims.AccountID != claims.Subject {
		return nil, fmt.Errorf("%w: token names no account", ErrInvalidToken)
	}
	return claims, nil
}
