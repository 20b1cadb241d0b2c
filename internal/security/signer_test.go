package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))

	token := signer.Sign(PurposeDownload, "doc-123")

	payload, err := signer.Unsign(PurposeDownload, token, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "doc-123", payload)
}

func TestSignerTokenIsURLSafe(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))

	token := signer.Sign(PurposeDownload, "payload with spaces / and ?query=1")

	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "?")
	assert.NotContains(t, token, " ")
}

func TestSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	token := signer.Sign(PurposeDownload, "doc-123")

	// Flip every byte position in turn; each mutation must invalidate
	// either the payload, the timestamp or the signature segment.
	for i := 0; i < len(token); i++ {
		mutated := []byte(token)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if string(mutated) == token {
			continue
		}

		_, err := signer.Unsign(PurposeDownload, string(mutated), 5*time.Minute)
		assert.ErrorIs(t, err, ErrBadSignature, "byte %d", i)
	}
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	token := NewSigner([]byte("secret-a")).Sign(PurposeDownload, "doc-123")

	_, err := NewSigner([]byte("secret-b")).Unsign(PurposeDownload, token, 5*time.Minute)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestSignerRejectsCrossPurposeToken(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))

	downloadToken := signer.Sign(PurposeDownload, "doc-123")
	_, err := signer.Unsign(PurposeVerifyEmail, downloadToken, 0)
	assert.ErrorIs(t, err, ErrBadSignature)

	emailToken := signer.Sign(PurposeVerifyEmail, "user@example.com")
	_, err = signer.Unsign(PurposeDownload, emailToken, 5*time.Minute)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestSignerExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewSignerAt([]byte("test-secret"), func() time.Time { return now })

	token := signer.Sign(PurposeDownload, "doc-123")

	now = now.Add(299 * time.Second)
	payload, err := signer.Unsign(PurposeDownload, token, 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "doc-123", payload)

	now = now.Add(2 * time.Second)
	_, err = signer.Unsign(PurposeDownload, token, 300*time.Second)
	assert.ErrorIs(t, err, ErrSignatureExpired)
}

func TestSignerZeroMaxAgeNeverExpires(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewSignerAt([]byte("test-secret"), func() time.Time { return now })

	token := signer.Sign(PurposeVerifyEmail, "user@example.com")

	now = now.Add(365 * 24 * time.Hour)
	payload, err := signer.Unsign(PurposeVerifyEmail, token, 0)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", payload)
}

func TestSignerSignatureCheckedBeforeExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewSignerAt([]byte("test-secret"), func() time.Time { return now })

	token := signer.Sign(PurposeDownload, "doc-123")
	now = now.Add(time.Hour)

	// Expired and tampered: tampering must win.
	parts := strings.Split(token, ".")
	tampered := parts[0] + "x." + parts[1] + "." + parts[2]
	_, err := signer.Unsign(PurposeDownload, tampered, 300*time.Second)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestSignerRejectsMalformedToken(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.???.***"} {
		_, err := signer.Unsign(PurposeDownload, token, 5*time.Minute)
		assert.ErrorIs(t, err, ErrBadSignature, "token %q", token)
	}
}
