package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid token")

// signToken builds the cookie token:
// base64(sessionId:expiresEpochMs:hex(HMAC-SHA256(secret, sessionId:expiresEpochMs))).
func signToken(secret []byte, sessionID string, expiresAt time.Time) string {
	payload := sessionID + ":" + strconv.FormatInt(expiresAt.UnixMilli(), 10)
	sig := computeSignature(secret, payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + sig))
}

// parseToken verifies structure, expiry and signature. Signature comparison
// is constant-time; a mismatch of any kind is the same ErrInvalidToken, so a
// caller cannot distinguish tampering from expiry by error shape.
func parseToken(secret []byte, token string, now time.Time) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	sessionID, expiresStr, sig := parts[0], parts[1], parts[2]
	if sessionID == "" {
		return "", ErrInvalidToken
	}

	expiresMs, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if now.After(time.UnixMilli(expiresMs)) {
		return "", ErrInvalidToken
	}

	expected := computeSignature(secret, sessionID+":"+expiresStr)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrInvalidToken
	}
	return sessionID, nil
}

func computeSignature(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashClient derives the stored client fingerprint. Raw user agent and IP are
// never persisted, only this digest.
func HashClient(userAgent, ip string) string {
	if userAgent == "" && ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userAgent + "|" + ip))
	return hex.EncodeToString(sum[:])
}
