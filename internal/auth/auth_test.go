package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

func newTestService(t *testing.T, password, hash string, ttl time.Duration) Service {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	svc, err := NewService(log, "test-secret", password, hash, ttl)
	if err != nil {
		t.Fatalf("init service: %v", err)
	}
	return svc
}

func TestLoginRoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, "hunter2", "", time.Hour)

	token, err := svc.Login("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.VerifyToken(token); err != nil {
		t.Fatalf("verify fresh token: %v", err)
	}

	if _, err := svc.Login("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got err=%v, want ErrInvalidCredentials", err)
	}
}

func TestLoginWithBcryptHash(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	// Hash outranks the plain password when both are configured.
	svc := newTestService(t, "decoy", string(hash), time.Hour)

	if _, err := svc.Login("hunter2"); err != nil {
		t.Fatalf("login against hash: %v", err)
	}
	if _, err := svc.Login("decoy"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("plain password accepted despite hash: err=%v", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, "hunter2", "", time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if err := svc.VerifyToken(tok); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("VerifyToken(%q): got err=%v, want ErrInvalidCredentials", tok, err)
		}
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, "hunter2", "", -time.Minute)

	token, err := svc.Login("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expired token accepted: err=%v", err)
	}
}

func TestVerifyTokenRejectsForeignSecret(t *testing.T) {
	t.Parallel()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	other, err := NewService(log, "other-secret", "hunter2", "", time.Hour)
	if err != nil {
		t.Fatalf("init other: %v", err)
	}
	token, err := other.Login("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc := newTestService(t, "hunter2", "", time.Hour)
	if err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("token signed with foreign secret accepted: err=%v", err)
	}
}

func TestNewServiceRequiresCredential(t *testing.T) {
	t.Parallel()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	if _, err := NewService(log, "secret", "", "", time.Hour); err == nil {
		t.Fatal("service built without any admin credential")
	}
	if _, err := NewService(log, "", "pw", "", time.Hour); err == nil {
		t.Fatal("service built without JWT secret")
	}
}
