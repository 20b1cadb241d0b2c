// Package policy is the pure allow/deny decision table for the service.
// The reference deployment left most document actions completely open;
// those defaults are kept, but each one is an explicit toggle so a stricter
// deployment changes configuration instead of code.
package policy

import (
	"errors"

	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
)

type Action string

const (
	ActionUploadDocument   Action = "upload_document"
	ActionListDocuments    Action = "list_documents"
	ActionDownloadDocument Action = "download_document"
	ActionViewDocument     Action = "view_document_inline"
	ActionDeleteDocument   Action = "delete_document"
	ActionIssueLink        Action = "request_secure_link"
	ActionRedeemLink       Action = "redeem_secure_link"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not permitted")
)

// Principal is the actor behind a request. The zero value is anonymous.
type Principal struct {
	AccountID     string
	Role          models.AccountRole
	Verified      bool
	Authenticated bool
}

// Config holds the per-action hardening toggles. Everything defaults to
// false, matching the observed open behavior.
type Config struct {
	RequireOpsRoleForUpload bool `mapstructure:"require_ops_role_for_upload"`
	RequireAuthForList      bool `mapstructure:"require_auth_for_list"`
	RequireAuthForDownload  bool `mapstructure:"require_auth_for_download"`
	RequireAuthForDelete    bool `mapstructure:"require_auth_for_delete"`
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Authorize returns nil when p may perform action, ErrUnauthenticated when
// the action needs a logged-in principal, and ErrForbidden when the
// principal's role does not qualify.
func (e *Engine) Authorize(p Principal, action Action) error {
	switch action {
	case ActionUploadDocument:
		if !e.cfg.RequireOpsRoleForUpload {
			return nil
		}
		if !p.Authenticated {
			return ErrUnauthenticated
		}
		if p.Role != models.RoleOps {
			return ErrForbidden
		}
		return nil

	case ActionListDocuments:
		return e.requireAuthIf(e.cfg.RequireAuthForList, p)

	case ActionDownloadDocument, ActionViewDocument:
		return e.requireAuthIf(e.cfg.RequireAuthForDownload, p)

	case ActionDeleteDocument:
		return e.requireAuthIf(e.cfg.RequireAuthForDelete, p)

	case ActionIssueLink:
		if !p.Authenticated {
			return ErrUnauthenticated
		}
		if p.Role != models.RoleClient {
			return ErrForbidden
		}
		return nil

	case ActionRedeemLink:
		// Possession of a valid signed token is the whole check.
		return nil
	}

	return ErrForbidden
}

func (e *Engine) requireAuthIf(required bool, p Principal) error {
	if required && !p.Authenticated {
		return ErrUnauthenticated
	}
	return nil
}
