package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"harvest-settlement/pkg/apperror"
)

// PayMongoSignatureVerifier implements ports.SignatureVerifier for the
// paymongo-signature header: t=<unix>,te=<hex>,li=<hex>.
type PayMongoSignatureVerifier struct {
	secret    []byte
	tolerance int64 // seconds
	now       func() time.Time
}

// NewPayMongoSignatureVerifier creates a verifier that accepts timestamps within tolerance of now.
func NewPayMongoSignatureVerifier(secret string, tolerance time.Duration) *PayMongoSignatureVerifier {
	return &PayMongoSignatureVerifier{
		secret:    []byte(secret),
		tolerance: int64(tolerance / time.Second),
		now:       time.Now,
	}
}

// WithClock replaces the clock used for the replay window.
func (v *PayMongoSignatureVerifier) WithClock(now func() time.Time) *PayMongoSignatureVerifier {
	v.now = now
	return v
}

// Sign computes HMAC-SHA256 of "{timestamp}.{body}" using secret.
// Returns lowercase hex-encoded signature.
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader builds a header the way the provider does. The unused mode slot stays empty.
func SignatureHeader(secret string, timestamp int64, body []byte, live bool) string {
	sig := Sign(secret, timestamp, body)
	if live {
		return "t=" + strconv.FormatInt(timestamp, 10) + ",te=,li=" + sig
	}
	return "t=" + strconv.FormatInt(timestamp, 10) + ",te=" + sig + ",li="
}

type signatureHeader struct {
	timestamp int64
	signature string
}

func parseSignatureHeader(header string) (*signatureHeader, error) {
	var t, te, li string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			t = value
		case "te":
			te = value
		case "li":
			li = value
		}
	}

	if t == "" {
		return nil, apperror.ErrMalformedSignature("missing timestamp")
	}
	ts, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return nil, apperror.ErrMalformedSignature("timestamp is not an integer")
	}

	sig := li
	if sig == "" {
		sig = te
	}
	if sig == "" {
		return nil, apperror.ErrMalformedSignature("missing signature")
	}
	return &signatureHeader{timestamp: ts, signature: strings.ToLower(sig)}, nil
}

// Verify checks authenticity and freshness of a delivery. nil means valid.
// Uses constant-time comparison to prevent timing attacks.
func (v *PayMongoSignatureVerifier) Verify(rawBody []byte, header string) error {
	if len(v.secret) == 0 {
		return apperror.ErrSecretNotConfigured()
	}
	if strings.TrimSpace(header) == "" {
		return apperror.ErrMissingSignature()
	}

	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := Sign(string(v.secret), parsed.timestamp, rawBody)
	if !hmac.Equal([]byte(expected), []byte(parsed.signature)) {
		return apperror.ErrSignatureMismatch()
	}

	drift := v.now().Unix() - parsed.timestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return apperror.ErrTimestampOutsideWindow()
	}
	return nil
}
