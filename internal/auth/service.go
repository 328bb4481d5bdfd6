package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	hashCost   = 12
	tokenTTL   = 24 * time.Hour
	defaultSub = "operator"
)

// Service guards the editor behind a single operator password. The
// plaintext is hashed at startup and never kept.
type Service struct {
	hash      []byte
	jwtSecret []byte
	now       func() time.Time
}

func NewService(password, jwtSecret string) (*Service, error) {
	if password == "" {
		return nil, errors.New("operator password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &Service{
		hash:      hash,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}, nil
}

type AuthResult struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks the password and issues a token whose subject is name, or
// "operator" when name is empty.
func (s *Service) Login(name, password string) (*AuthResult, error) {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if name == "" {
		name = defaultSub
	}
	exp := s.now().Add(tokenTTL)
	token, err := s.issueToken(name, exp)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Operator: name, ExpiresAt: exp}, nil
}

// ValidateToken returns the token's subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}

func (s *Service) issueToken(sub string, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": s.now().Unix(),
		"exp": exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
