package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

var testKey = []byte("webhook-signing-secret")

func encodedTestKey() string {
	return base64.StdEncoding.EncodeToString(testKey)
}

func sign(key, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return "HMAC " + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	body := []byte(`{"from":{"name":"alice"},"text":"build please"}`)

	tests := []struct {
		name       string
		authHeader string
		body       []byte
		wantValid  bool
		wantReason string // substring match, empty means no check
	}{
		{
			name:       "valid signature",
			authHeader: sign(testKey, body),
			body:       body,
			wantValid:  true,
		},
		{
			name:       "missing header",
			authHeader: "",
			body:       body,
			wantValid:  false,
			wantReason: "missing HMAC signature",
		},
		{
			name:       "wrong scheme",
			authHeader: "Bearer abc123",
			body:       body,
			wantValid:  false,
			wantReason: "missing HMAC signature",
		},
		{
			name:       "prefix without value",
			authHeader: "HMAC ",
			body:       body,
			wantValid:  false,
			wantReason: "missing HMAC signature",
		},
		{
			name:       "garbage signature",
			authHeader: "HMAC garbage",
			body:       body,
			wantValid:  false,
			wantReason: "signature mismatch",
		},
		{
			name:       "signature over different body",
			authHeader: sign(testKey, []byte(`{"text":"other"}`)),
			body:       body,
			wantValid:  false,
			wantReason: "signature mismatch",
		},
		{
			name:       "signature with wrong key",
			authHeader: sign([]byte("another-secret"), body),
			body:       body,
			wantValid:  false,
			wantReason: "signature mismatch",
		},
	}

	svc := NewSignatureService(encodedTestKey())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Verify(tt.authHeader, tt.body)

			if result.Valid != tt.wantValid {
				t.Errorf("expected valid=%v, got %v (reason: %s)", tt.wantValid, result.Valid, result.Reason)
			}

			if !tt.wantValid && result.Reason == "" {
				t.Error("invalid result must carry a reason")
			}

			if tt.wantReason != "" && !strings.Contains(result.Reason, tt.wantReason) {
				t.Errorf("expected reason containing %q, got %q", tt.wantReason, result.Reason)
			}
		})
	}
}

func TestVerifySingleByteMutation(t *testing.T) {
	body := []byte(`{"text":"deploy"}`)
	header := sign(testKey, body)
	svc := NewSignatureService(encodedTestKey())

	if result := svc.Verify(header, body); !result.Valid {
		t.Fatalf("unmutated request must verify: %s", result.Reason)
	}

	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01

		if result := svc.Verify(header, mutated); result.Valid {
			t.Errorf("mutation at byte %d still verified", i)
		}
	}
}

func TestVerifyBadKeyMaterial(t *testing.T) {
	svc := NewSignatureService("not-valid-base64!!!")

	result := svc.Verify("HMAC abcdef", []byte("{}"))
	if result.Valid {
		t.Error("verification with undecodable key must fail")
	}
	if result.Reason == "" {
		t.Error("expected a generic failure reason")
	}
	if strings.Contains(result.Reason, "Expected") {
		t.Error("key decode failure must not leak a computed MAC")
	}
}
