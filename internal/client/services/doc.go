// Package services contains the application services of the marketplace
// client: the login and registration flow, role-gated navigation, the bid
// lifecycle flows and the project/profile queries the CLI renders.
//
// Flows are small state machines guarded by a mutex. Network calls run with
// the lock released; when a flow is reset while a call is in flight, the late
// result is discarded and the call returns ErrStale.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/session"
)

var (
	ErrStale           = errors.New("flow was reset while the request was in flight")
	ErrBusy            = errors.New("a request is already in progress")
	ErrOTPNotRequested = errors.New("request a verification code for this email first")
	ErrIdentityLocked  = errors.New("registration details cannot change after the code was sent")
	ErrNotCompletable  = errors.New("bid cannot be marked complete")
	ErrNoFile          = errors.New("attach a file before submitting")
)

// SessionReader is the read side of the session store.
type SessionReader interface {
	Load(ctx context.Context) models.Session
}

// SessionStore is everything the flows need from the session store.
type SessionStore interface {
	SessionReader
	Save(ctx context.Context, token string, profile models.UserSummary) error
	Clear(ctx context.Context) error
	Subscribe(l session.Listener) func()
}

var _ SessionStore = (*session.Store)(nil)
