package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
)

const signaturePrefix = "HMAC "

// SignatureResult is the outcome of a verification. Reason is meant for
// operator logs; it may contain the expected MAC and must never be returned
// to the caller.
type SignatureResult struct {
	Valid  bool
	Reason string
}

// SignatureService verifies HMAC-SHA256 request signatures on inbound
// webhooks. The MAC is computed over the exact raw body bytes, keyed by the
// base64-decoded signing key, and compared against the base64 MAC carried in
// the Authorization header ("HMAC <base64>").
type SignatureService struct {
	signingKey string // base64-encoded shared secret
}

func NewSignatureService(signingKey string) *SignatureService {
	return &SignatureService{signingKey: signingKey}
}

// Verify never panics or returns an error; any failure along the way yields
// an invalid result with a reason.
func (s *SignatureService) Verify(authHeader string, body []byte) SignatureResult {
	if !strings.HasPrefix(authHeader, signaturePrefix) {
		return SignatureResult{Valid: false, Reason: "missing HMAC signature in Authorization header"}
	}

	provided := strings.TrimPrefix(authHeader, signaturePrefix)
	if provided == "" {
		return SignatureResult{Valid: false, Reason: "missing HMAC signature in Authorization header"}
	}

	keyBytes, err := base64.StdEncoding.DecodeString(s.signingKey)
	if err != nil {
		return SignatureResult{Valid: false, Reason: "failed to verify MAC on incoming request"}
	}

	mac := hmac.New(sha256.New, keyBytes)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1 {
		return SignatureResult{Valid: true}
	}

	return SignatureResult{
		Valid:  false,
		Reason: fmt.Sprintf("signature mismatch. Expected:'%s' Provided:'%s'", expected, provided),
	}
}
