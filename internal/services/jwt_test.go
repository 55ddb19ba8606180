package services_test

import (
	"testing"
	"time"

	"github.com/dare4net/earnest-gaming-backend/internal/config"
	"github.com/dare4net/earnest-gaming-backend/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	token, err := svc.GenerateToken("user-1", "admin", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestJWTExpired(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	token, err := svc.GenerateToken("user-1", "", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Expired token should not validate")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	issuer := services.NewJWTService(&config.Config{JWTSecret: "secret-a"})
	verifier := services.NewJWTService(&config.Config{JWTSecret: "secret-b"})

	token, err := issuer.GenerateToken("user-1", "", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret should not validate")
	}
}
