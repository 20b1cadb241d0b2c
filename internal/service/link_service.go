package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/config"
	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/policy"
	"github.com/nilesh-agrahari/SecureFileShare/internal/security"
)

var (
	ErrLinkExpired = errors.New("link expired")
	ErrLinkRevoked = errors.New("link revoked")
)

const denylistKeyPrefix = "link:denied:"

// LinkService issues and redeems time-limited signed download links. A
// link is a pure bearer capability: redemption needs no session, only a
// token whose signature verifies within the max-age window. Tokens are
// multi-use inside the window. The optional Redis denylist exists for
// emergency revocation and is off by default.
type LinkService struct {
	docs   DocumentStore
	blobs  BlobStore
	authz  *policy.Engine
	signer *security.Signer
	cache  *redis.Client
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewLinkService(
	docs DocumentStore,
	blobs BlobStore,
	authz *policy.Engine,
	signer *security.Signer,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *LinkService {
	return &LinkService{
		docs:   docs,
		blobs:  blobs,
		authz:  authz,
		signer: signer,
		cache:  cache,
		cfg:    cfg,
		log:    log,
	}
}

// Issue generates a signed download URL for the document. Only an
// authenticated CLIENT principal may request one.
func (s *LinkService) Issue(ctx context.Context, p policy.Principal, documentID string) (string, error) {
	if err := s.authz.Authorize(p, policy.ActionIssueLink); err != nil {
		return "", err
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}

	token := s.signer.Sign(security.PurposeDownload, doc.ID)
	url := fmt.Sprintf("%s/api/v1/documents/secure/%s",
		strings.TrimSuffix(s.cfg.Security.PublicBaseURL, "/"), token)

	s.log.Info().
		Str("document_id", doc.ID).
		Str("account_id", p.AccountID).
		Msg("secure link issued")
	return url, nil
}

// Redeem verifies the token and opens the document for streaming. The
// signature check runs before the expiry check, and the two failures stay
// distinct here even though the HTTP layer presents them as one.
func (s *LinkService) Redeem(ctx context.Context, token string) (models.Document, io.ReadCloser, error) {
	if s.cfg.Security.LinkDenylist && s.cache != nil {
		denied, err := s.cache.Exists(ctx, denylistKeyPrefix+tokenDigest(token)).Result()
		if err != nil {
			s.log.Warn().Err(err).Msg("link denylist check failed")
		} else if denied > 0 {
			return models.Document{}, nil, ErrLinkRevoked
		}
	}

	documentID, err := s.signer.Unsign(security.PurposeDownload, token, s.cfg.Security.LinkMaxAge)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrSignatureExpired):
			s.log.Info().Msg("link redemption rejected: expired")
			return models.Document{}, nil, ErrLinkExpired
		default:
			s.log.Info().Msg("link redemption rejected: bad signature")
			return models.Document{}, nil, ErrLinkInvalid
		}
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return models.Document{}, nil, err
	}

	stream, err := s.blobs.OpenRead(ctx, doc.ObjectKey)
	if err != nil {
		return models.Document{}, nil, err
	}
	return doc, stream, nil
}

// Revoke denylists a still-valid token for the remainder of its window.
// With the denylist disabled this is a no-op by design: verification is
// stateless and issued links cannot be recalled.
func (s *LinkService) Revoke(ctx context.Context, token string) error {
	if !s.cfg.Security.LinkDenylist || s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, denylistKeyPrefix+tokenDigest(token), "1", s.cfg.Security.LinkMaxAge).Err()
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
