package api

import (
	"context"
	"errors"

	"github.com/gatehouse-io/gatehouse/pkg/session"
)

// ErrLoginRequired signals that the request carries no usable session and the
// caller must be sent through the interactive login flow.
var ErrLoginRequired = errors.New("interactive login required")

// sessionView adapts stored session data to the identity resolution layer.
// A nil Data is a valid empty view.
type sessionView struct {
	data *session.Data
}

func (v sessionView) AccessToken() string {
	if v.data == nil {
		return ""
	}
	return v.data.AccessToken
}

func (v sessionView) UserID() int64 {
	if v.data == nil {
		return 0
	}
	return v.data.UserID
}

// sessionTokens exposes the session's token state for the logout flow.
// Flushing the tokens deletes the whole session; tokens live nowhere else.
type sessionTokens struct {
	store session.Store
	data  *session.Data
}

func (t sessionTokens) AccessToken(_ context.Context) (string, error) {
	if t.data == nil {
		return "", nil
	}
	return t.data.AccessToken, nil
}

func (t sessionTokens) Flush(ctx context.Context) error {
	if t.data == nil {
		return nil
	}
	return t.store.Delete(ctx, t.data.ID)
}

// redirectLoginProcessor refuses to log in inline and reports
// ErrLoginRequired so the HTTP layer can issue a redirect instead.
type redirectLoginProcessor struct{}

func (redirectLoginProcessor) ProcessLoginRequest(_ context.Context) error {
	return ErrLoginRequired
}
