package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Purpose namespaces signed tokens so a token minted for one flow can never
// be redeemed in another, even though both use the same secret.
type Purpose string

const (
	PurposeDownload    Purpose = "doc"
	PurposeVerifyEmail Purpose = "email"
)

var (
	ErrBadSignature     = errors.New("bad signature")
	ErrSignatureExpired = errors.New("signature expired")
)

// Signer mints and verifies compact URL-safe bearer tokens of the form
// payload.timestamp.signature, each segment base64url without padding.
// The MAC covers the first two segments, so tampering with either the
// payload or the timestamp invalidates the token. Verification is
// stateless: no store is consulted.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// NewSignerAt is like NewSigner with an injected clock.
func NewSignerAt(secret []byte, now func() time.Time) *Signer {
	return &Signer{secret: secret, now: now}
}

func (s *Signer) Sign(purpose Purpose, payload string) string {
	body := base64.RawURLEncoding.EncodeToString([]byte(string(purpose) + ":" + payload))
	ts := base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(s.now().Unix(), 10)))
	return body + "." + ts + "." + s.mac(body+"."+ts)
}

// Unsign verifies token and returns its payload. The signature is checked
// first (constant time), then the purpose tag, then expiry. A maxAge of
// zero disables the expiry check.
func (s *Signer) Unsign(purpose Purpose, token string, maxAge time.Duration) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrBadSignature
	}

	if !hmac.Equal([]byte(parts[2]), []byte(s.mac(parts[0]+"."+parts[1]))) {
		return "", ErrBadSignature
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrBadSignature
	}
	payload, ok := strings.CutPrefix(string(body), string(purpose)+":")
	if !ok {
		return "", ErrBadSignature
	}

	if maxAge > 0 {
		rawTS, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err != nil {
			return "", ErrBadSignature
		}
		issued, err := strconv.ParseInt(string(rawTS), 10, 64)
		if err != nil {
			return "", ErrBadSignature
		}
		if s.now().Sub(time.Unix(issued, 0)) > maxAge {
			return "", ErrSignatureExpired
		}
	}

	return payload, nil
}

func (s *Signer) mac(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
