package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestAuth(t *testing.T, secret string) *AuthMiddleware {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewAuthMiddleware(log, secret)
}

func TestParseTokenRoundTrip(t *testing.T) {
	am := newTestAuth(t, "unit-secret")
	userID := uuid.New()

	tokenString := signToken(t, "unit-secret", jwt.MapClaims{
		"sub":  userID.String(),
		"role": requestdata.RoleTeacher,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	rd, err := am.parseToken(tokenString)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	if rd.UserID != userID {
		t.Fatalf("user id: want=%s got=%s", userID, rd.UserID)
	}
	if rd.Role != requestdata.RoleTeacher {
		t.Fatalf("role: want=%q got=%q", requestdata.RoleTeacher, rd.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	am := newTestAuth(t, "unit-secret")
	tokenString := signToken(t, "other-secret", jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": requestdata.RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if _, err := am.parseToken(tokenString); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestParseTokenRejectsMissingRole(t *testing.T) {
	am := newTestAuth(t, "unit-secret")
	tokenString := signToken(t, "unit-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := am.parseToken(tokenString); err == nil {
		t.Fatalf("expected error for missing role claim")
	}
}

func TestParseTokenRejectsBadSubject(t *testing.T) {
	am := newTestAuth(t, "unit-secret")
	tokenString := signToken(t, "unit-secret", jwt.MapClaims{
		"sub":  "not-a-uuid",
		"role": requestdata.RoleStudent,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if _, err := am.parseToken(tokenString); err == nil {
		t.Fatalf("expected error for invalid subject")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	am := newTestAuth(t, "unit-secret")
	tokenString := signToken(t, "unit-secret", jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": requestdata.RoleStudent,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := am.parseToken(tokenString); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
