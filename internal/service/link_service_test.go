package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/policy"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/security"
)

type linkFixture struct {
	svc   *LinkService
	docs  *fakeDocumentStore
	blobs *fakeBlobStore
	now   *time.Time
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()

	now := time.Unix(1700000000, 0)
	signer := security.NewSignerAt([]byte("signing-secret"), func() time.Time { return now })

	docs := newFakeDocumentStore()
	blobs := newFakeBlobStore()
	svc := NewLinkService(docs, blobs, policy.NewEngine(policy.Config{}), signer, nil, testConfig(), zerolog.Nop())

	return &linkFixture{svc: svc, docs: docs, blobs: blobs, now: &now}
}

func (f *linkFixture) addDocument(t *testing.T, id string, content string) models.Document {
	t.Helper()
	doc := models.Document{
		ID:        id,
		Bucket:    "test-bucket",
		ObjectKey: "2024/01/01/" + id + ".pptx",
		FileName:  id + ".pptx",
		Extension: "pptx",
		SizeBytes: int64(len(content)),
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	require.NoError(t, f.blobs.Put(context.Background(), doc.ObjectKey, strings.NewReader(content), doc.SizeBytes, ""))
	return doc
}

var clientPrincipal = policy.Principal{AccountID: "client-1", Role: models.RoleClient, Verified: true, Authenticated: true}

func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	idx := strings.LastIndex(url, "/")
	require.Positive(t, idx)
	return url[idx+1:]
}

func TestIssueLinkForClient(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "bytes")

	url, err := f.svc.Issue(context.Background(), clientPrincipal, "doc-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/api/v1/documents/secure/"), url)
}

func TestIssueLinkDeniedForOpsAndAnonymous(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "bytes")

	ops := policy.Principal{AccountID: "ops-1", Role: models.RoleOps, Verified: true, Authenticated: true}
	_, err := f.svc.Issue(context.Background(), ops, "doc-1")
	assert.ErrorIs(t, err, policy.ErrForbidden)

	_, err = f.svc.Issue(context.Background(), policy.Principal{}, "doc-1")
	assert.ErrorIs(t, err, policy.ErrUnauthenticated)
}

func TestIssueLinkUnknownDocument(t *testing.T) {
	f := newLinkFixture(t)

	_, err := f.svc.Issue(context.Background(), clientPrincipal, "missing")
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestRedeemStreamsDocument(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "slide bytes")

	url, err := f.svc.Issue(context.Background(), clientPrincipal, "doc-1")
	require.NoError(t, err)
	token := tokenFromURL(t, url)

	doc, stream, err := f.svc.Redeem(context.Background(), token)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "doc-1", doc.ID)
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "slide bytes", string(data))
}

func TestRedeemIsRepeatableWithinWindow(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "bytes")

	url, err := f.svc.Issue(context.Background(), clientPrincipal, "doc-1")
	require.NoError(t, err)
	token := tokenFromURL(t, url)

	for i := 0; i < 3; i++ {
		*f.now = f.now.Add(60 * time.Second)
		_, stream, err := f.svc.Redeem(context.Background(), token)
		require.NoError(t, err, "redemption %d", i)
		stream.Close()
	}
}

func TestRedeemExpiresAfterWindow(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "bytes")

	url, err := f.svc.Issue(context.Background(), clientPrincipal, "doc-1")
	require.NoError(t, err)
	token := tokenFromURL(t, url)

	*f.now = f.now.Add(301 * time.Second)
	_, _, err = f.svc.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestRedeemRejectsTamperedToken(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "bytes")

	url, err := f.svc.Issue(context.Background(), clientPrincipal, "doc-1")
	require.NoError(t, err)
	token := tokenFromURL(t, url)

	tampered := token[:len(token)-1]
	if strings.HasSuffix(token, "A") {
		tampered += "B"
	} else {
		tampered += "A"
	}

	_, _, err = f.svc.Redeem(context.Background(), tampered)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestRedeemRejectsSessionStyleToken(t *testing.T) {
	f := newLinkFixture(t)

	_, _, err := f.svc.Redeem(context.Background(), "eyJhbGciOiJIUzUxMiJ9.e30.sig")
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestRedeemAfterDocumentDeleted(t *testing.T) {
	f := newLinkFixture(t)
	f.addDocument(t, "doc-1", "bytes")

	url, err := f.svc.Issue(context.Background(), clientPrincipal, "doc-1")
	require.NoError(t, err)
	token := tokenFromURL(t, url)

	require.NoError(t, f.docs.Delete(context.Background(), "doc-1"))

	_, _, err = f.svc.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}
