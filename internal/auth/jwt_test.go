// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package auth

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	token, err := manager.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID() != "user-42" {
		t.Errorf("UserID = %q, want user-42", claims.UserID())
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTManager(testSecret, time.Hour)
	verifier := NewJWTManager("another-secret-another-secret-32", time.Hour)

	token, err := issuer.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	manager := NewJWTManager(testSecret, -time.Minute)

	token, err := manager.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateToken_EmptySubject(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	token, err := manager.GenerateToken("")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = manager.ValidateToken(token)
	if err == nil || !strings.Contains(err.Error(), "no subject") {
		t.Fatalf("err = %v, want subject rejection", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)

	if _, err := manager.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}
