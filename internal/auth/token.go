package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer = "direct-messaging"
	defaultTTL    = 24 * time.Hour
	defaultLeeway = 30 * time.Second
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func NewTokens(cfg Config) (*Tokens, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token secret must not be empty")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tokens{
		secret: []byte(cfg.Secret),
		issuer: issuer,
		ttl:    ttl,
		leeway: defaultLeeway,
		now:    time.Now,
	}, nil
}

func (t *Tokens) Issue(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.New("username must not be empty")
	}

	now := t.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks signature, issuer and expiry and returns the username.
func (t *Tokens) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(t.leeway),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	username := strings.TrimSpace(claims.Username)
	if username == "" {
		username = strings.TrimSpace(claims.Subject)
	}
	if username == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("token subject missing"))
	}
	return username, nil
}
