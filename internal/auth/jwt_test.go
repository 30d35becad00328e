package auth

import (
	"testing"
	"time"
)

func testKeys() Keys {
	return Keys{Access: []byte("access-secret"), Refresh: []byte("refresh-secret")}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	keys := testKeys()
	issuer := NewIssuer(keys, 15*time.Minute, 7*24*time.Hour, "expensetracker")
	verifier := NewVerifier(keys)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	access, refresh, err := issuer.IssueTokenPair("user-42", now)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	verifier.TimeFunc = func() time.Time { return now.Add(time.Minute) }

	claims, err := verifier.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("expected user-42, got %q", claims.UserID)
	}

	claims, err = verifier.VerifyRefresh(refresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("expected user-42, got %q", claims.UserID)
	}
}

func TestAccessTokenExpiryBoundary(t *testing.T) {
	keys := testKeys()
	issuer := NewIssuer(keys, 15*time.Minute, 7*24*time.Hour, "expensetracker")
	verifier := NewVerifier(keys)

	minted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expiry := minted.Add(15 * time.Minute)

	access, err := issuer.IssueAccessToken("user-1", minted)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier.TimeFunc = func() time.Time { return expiry.Add(-time.Second) }
	if _, err := verifier.VerifyAccess(access); err != nil {
		t.Fatalf("expected token valid just before expiry: %v", err)
	}

	verifier.TimeFunc = func() time.Time { return expiry.Add(time.Second) }
	if _, err := verifier.VerifyAccess(access); err == nil {
		t.Fatalf("expected token rejected after expiry")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	keys := testKeys()
	issuer := NewIssuer(keys, 15*time.Minute, 7*24*time.Hour, "expensetracker")
	verifier := NewVerifier(keys)

	now := time.Now()
	access, refresh, err := issuer.IssueTokenPair("user-1", now)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := verifier.VerifyRefresh(access); err == nil {
		t.Fatalf("access token must not verify as refresh token")
	}
	if _, err := verifier.VerifyAccess(refresh); err == nil {
		t.Fatalf("refresh token must not verify as access token")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	keys := testKeys()
	issuer := NewIssuer(keys, 15*time.Minute, 7*24*time.Hour, "expensetracker")
	verifier := NewVerifier(keys)

	access, err := issuer.IssueAccessToken("user-1", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := access[:len(access)-2] + "xx"
	if _, err := verifier.VerifyAccess(tampered); err == nil {
		t.Fatalf("expected tampered token rejected")
	}
}

func TestVerifyRejectsOtherIssuerKey(t *testing.T) {
	issuer := NewIssuer(Keys{Access: []byte("other"), Refresh: []byte("other-r")}, 15*time.Minute, time.Hour, "expensetracker")
	verifier := NewVerifier(testKeys())

	access, err := issuer.IssueAccessToken("user-1", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.VerifyAccess(access); err == nil {
		t.Fatalf("expected foreign-key token rejected")
	}
}
