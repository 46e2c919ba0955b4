package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}

	id, err := IdentityFromToken(token)
	if err != nil || id != "user-1" {
		t.Errorf("IdentityFromToken() = %q, %v", id, err)
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	SetSecret("one")
	token, _ := GenerateToken("user-1", time.Hour)

	SetSecret("two")
	defer SetSecret("test-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestObjectTokenExpiry(t *testing.T) {
	SetSecret("test-secret")

	valid, _ := GenerateObjectToken("report_photos", "u/r/1-0.jpg", time.Now().Add(time.Minute))
	claims, err := ValidateObjectToken(valid)
	if err != nil {
		t.Fatalf("ValidateObjectToken() error = %v", err)
	}
	if claims.Path != "u/r/1-0.jpg" || claims.Bucket != "report_photos" {
		t.Errorf("claims = %+v", claims)
	}

	expired, _ := GenerateObjectToken("report_photos", "u/r/1-0.jpg", time.Now().Add(-time.Minute))
	if _, err := ValidateObjectToken(expired); err == nil {
		t.Error("expected expired token to be rejected")
	}
}
