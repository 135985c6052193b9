package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fdg312/nutrition-ledger/internal/config"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrDevAuthDisabled = errors.New("dev auth disabled")
)

// DevSubject — владелец дневника в dev-режиме
const DevSubject = "ledger-owner"

// Service — выпуск и проверка JWT (HS256)
type Service struct {
	mode   string
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		mode:   cfg.AuthMode,
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    time.Duration(cfg.JWTTTLMinutes) * time.Minute,
		now:    time.Now,
	}
}

// SignInDev выдаёт токен без проверки личности (только AUTH_MODE=dev)
func (s *Service) SignInDev(ctx context.Context, req DevAuthRequest) (*DevAuthResponse, error) {
	_ = ctx

	if s.mode != config.AuthModeDev {
		return nil, ErrDevAuthDisabled
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = DevSubject
	}

	accessToken, err := s.issue(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
		Subject:     subject,
	}, nil
}

func (s *Service) issue(subject string) (string, error) {
	now := s.now()

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": s.issuer,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyJWT проверяет подпись, срок и issuer; возвращает sub
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
