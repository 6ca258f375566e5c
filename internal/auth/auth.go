// Package auth implements the single-admin credential check and the JWT
// tokens that guard the library's mutating surface.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const subjectAdmin = "admin"

type Service interface {
	// Login exchanges the admin password for a signed bearer token.
	Login(password string) (string, error)
	// VerifyToken checks signature, expiry, and subject.
	VerifyToken(tokenString string) error
	AccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	// Exactly one of adminPassword / adminPasswordHash is consulted;
	// the bcrypt hash wins when both are set.
	adminPassword     string
	adminPasswordHash string
	accessTTL         time.Duration
}

func NewService(log *logger.Logger, jwtSecretKey, adminPassword, adminPasswordHash string, accessTTL time.Duration) (Service, error) {
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("auth: JWT secret is empty")
	}
	if adminPassword == "" && adminPasswordHash == "" {
		return nil, fmt.Errorf("auth: no admin credential configured")
	}
	return &authService{
		log:               log.With("service", "AuthService"),
		jwtSecretKey:      jwtSecretKey,
		adminPassword:     adminPassword,
		adminPasswordHash: adminPasswordHash,
		accessTTL:         accessTTL,
	}, nil
}

func (as *authService) Login(password string) (string, error) {
	if !as.checkPassword(password) {
		as.log.Warn("Admin login rejected")
		return "", ErrInvalidCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   subjectAdmin,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) VerifyToken(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidCredentials
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != subjectAdmin {
		return ErrInvalidCredentials
	}
	return nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) checkPassword(password string) bool {
	if as.adminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(as.adminPasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(as.adminPassword), []byte(password)) == 1
}
