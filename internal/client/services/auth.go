package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/client/client"
	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
	StateRequestingOTP
	StateOTPPending
	StateVerifyingOTP
)

var stateNames = [...]string{"idle", "submitting", "success", "failed", "requesting-otp", "otp-pending", "verifying-otp"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) inFlight() bool {
	return s == StateSubmitting || s == StateRequestingOTP || s == StateVerifyingOTP
}

// RegistrationAttempt is the transient signup form. Once OTPRequested is set
// the identity fields are frozen for the rest of the attempt.
type RegistrationAttempt struct {
	Name         string
	Email        string
	Password     string
	Role         models.Role
	OTPRequested bool
	OTPValue     string
}

func (a RegistrationAttempt) registration() models.Registration {
	return models.Registration{Name: a.Name, Email: a.Email, Password: a.Password, Role: a.Role}
}

// AuthFlow drives login, signup with a one-time code, and logout.
type AuthFlow struct {
	client    client.Client
	store     SessionStore
	notify    models.NoticeFunc
	onSuccess func(Route)
	log       logging.Logger

	// commitMu orders "check epoch, then write the session" against resets,
	// so a reset never lets a stale response reach the store.
	commitMu sync.Mutex

	mu      sync.Mutex
	mode    Mode
	state   State
	epoch   uint64
	attempt RegistrationAttempt
	lastErr error
}

type AuthOption func(*AuthFlow)

func WithNotices(fn models.NoticeFunc) AuthOption {
	return func(f *AuthFlow) { f.notify = fn }
}

// WithRedirect sets the callback that receives the target route after a
// successful login, registration or logout.
func WithRedirect(fn func(Route)) AuthOption {
	return func(f *AuthFlow) { f.onSuccess = fn }
}

func WithAuthLogger(l logging.Logger) AuthOption {
	return func(f *AuthFlow) { f.log = l }
}

func NewAuthFlow(c client.Client, store SessionStore, opts ...AuthOption) *AuthFlow {
	f := &AuthFlow{client: c, store: store, log: logging.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *AuthFlow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *AuthFlow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *AuthFlow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Attempt returns a copy of the current registration attempt.
func (f *AuthFlow) Attempt() RegistrationAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempt
}

// SwitchMode selects the login or register form. Any change resets the flow.
func (f *AuthFlow) SwitchMode(m Mode) {
	f.commitMu.Lock()
	defer f.commitMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == m {
		return
	}
	f.resetLocked(m)
}

// Close discards all transient state, like closing the auth dialog.
// Requests already sent still complete, but their results are dropped.
func (f *AuthFlow) Close() {
	f.commitMu.Lock()
	defer f.commitMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked(f.mode)
}

func (f *AuthFlow) resetLocked(m Mode) {
	f.epoch++
	f.mode = m
	f.state = StateIdle
	f.attempt = RegistrationAttempt{}
	f.lastErr = nil
}

// begin moves the flow into an in-flight state and returns the epoch the
// request belongs to.
func (f *AuthFlow) begin(m Mode, allowed func(State) bool, next State) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.inFlight() {
		return 0, ErrBusy
	}
	if f.mode != m {
		f.resetLocked(m)
	}
	if allowed != nil && !allowed(f.state) {
		return 0, ErrOTPNotRequested
	}
	f.state = next
	f.lastErr = nil
	return f.epoch, nil
}

// settle records a failed request unless the flow moved on meanwhile.
func (f *AuthFlow) settle(ctx context.Context, epoch uint64, next State, err error) error {
	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		f.log.Debug(ctx, "dropping late auth response", "error", err)
		return ErrStale
	}
	f.state = next
	f.lastErr = err
	f.mu.Unlock()

	f.notify.Emit(models.NoticeError, err.Error())
	return err
}

func (f *AuthFlow) fail(err error) error {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	f.notify.Emit(models.NoticeWarning, err.Error())
	return err
}

// Login signs in with email and password.
func (f *AuthFlow) Login(ctx context.Context, email, password string) (*models.UserSummary, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, f.fail(fmt.Errorf("%w: please enter email and password", common.ErrValidation))
	}

	epoch, err := f.begin(ModeLogin, nil, StateSubmitting)
	if err != nil {
		return nil, err
	}

	res, err := f.client.Login(ctx, email, password)
	if err != nil {
		return nil, f.settle(ctx, epoch, StateFailed, err)
	}
	if err := f.commit(ctx, epoch, res, StateFailed); err != nil {
		return nil, err
	}

	f.notify.Emit(models.NoticeSuccess, "Login successful!")
	f.redirect(RouteHome)
	return &res.User, nil
}

// RequestRegistrationOTP sends the identity fields and asks the server to
// mail a code. While a code is pending, calling it again with the same
// fields re-sends the code; different fields are rejected.
func (f *AuthFlow) RequestRegistrationOTP(ctx context.Context, reg models.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return f.fail(err)
	}

	f.mu.Lock()
	if f.mode == ModeRegister && f.attempt.OTPRequested && f.attempt.registration() != reg {
		f.mu.Unlock()
		return f.fail(ErrIdentityLocked)
	}
	f.mu.Unlock()

	epoch, err := f.begin(ModeRegister, nil, StateRequestingOTP)
	if err != nil {
		return err
	}

	f.mu.Lock()
	prev := StateIdle
	if f.attempt.OTPRequested {
		prev = StateOTPPending
	} else {
		f.attempt = RegistrationAttempt{Name: reg.Name, Email: reg.Email, Password: reg.Password, Role: reg.Role}
	}
	f.mu.Unlock()

	msg, err := f.client.RequestOTP(ctx, reg)
	if err != nil {
		return f.settle(ctx, epoch, prev, err)
	}

	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return ErrStale
	}
	f.attempt.OTPRequested = true
	f.state = StateOTPPending
	f.mu.Unlock()

	if msg == "" {
		msg = "OTP sent to your email"
	}
	f.notify.Emit(models.NoticeSuccess, msg)
	return nil
}

// VerifyRegistrationOTP completes signup with the mailed code. A rejected
// code leaves the flow waiting for another try.
func (f *AuthFlow) VerifyRegistrationOTP(ctx context.Context, email, code string) (*models.UserSummary, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, f.fail(fmt.Errorf("%w: please enter the verification code", common.ErrValidation))
	}

	f.mu.Lock()
	pending := f.mode == ModeRegister && f.attempt.OTPRequested && strings.EqualFold(f.attempt.Email, email)
	f.mu.Unlock()
	if !pending {
		return nil, f.fail(ErrOTPNotRequested)
	}

	epoch, err := f.begin(ModeRegister, func(s State) bool { return s == StateOTPPending }, StateVerifyingOTP)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.attempt.OTPValue = code
	email = f.attempt.Email
	f.mu.Unlock()

	res, err := f.client.VerifyOTP(ctx, email, code)
	if err != nil {
		return nil, f.settle(ctx, epoch, StateOTPPending, err)
	}
	if err := f.commit(ctx, epoch, res, StateOTPPending); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.epoch == epoch {
		f.attempt = RegistrationAttempt{}
	}
	f.mu.Unlock()

	f.notify.Emit(models.NoticeSuccess, "Registration successful!")
	f.redirect(RouteHome)
	return &res.User, nil
}

// commit writes the session for a successful auth response, unless the
// flow was reset after the request went out.
func (f *AuthFlow) commit(ctx context.Context, epoch uint64, res *models.AuthResult, onErr State) error {
	f.commitMu.Lock()
	defer f.commitMu.Unlock()

	f.mu.Lock()
	stale := f.epoch != epoch
	f.mu.Unlock()
	if stale {
		f.log.Debug(ctx, "dropping late auth response", "user_id", res.User.ID)
		return ErrStale
	}

	if err := f.store.Save(ctx, res.Token, res.User); err != nil {
		return f.settle(ctx, epoch, onErr, err)
	}

	f.mu.Lock()
	f.state = StateSuccess
	f.lastErr = nil
	f.mu.Unlock()

	f.log.Info(ctx, "signed in", "user_id", res.User.ID, "role", res.User.Role)
	return nil
}

// Logout clears the session and resets the flow.
func (f *AuthFlow) Logout(ctx context.Context) error {
	if err := f.clear(ctx); err != nil {
		return err
	}
	f.notify.Emit(models.NoticeSuccess, "Logged out successfully")
	f.redirect(RouteHome)
	return nil
}

// SessionExpired is the reaction to a 401 from an authenticated call: the
// same local clearing as Logout, with a warning instead of a success notice.
func (f *AuthFlow) SessionExpired(ctx context.Context) {
	if err := f.clear(ctx); err != nil {
		f.log.Warn(ctx, "failed to clear expired session", "error", err)
		return
	}
	f.notify.Emit(models.NoticeWarning, "Your session has expired. Please log in again.")
	f.redirect(RouteHome)
}

func (f *AuthFlow) clear(ctx context.Context) error {
	f.Close()
	if err := f.store.Clear(ctx); err != nil {
		f.notify.Emit(models.NoticeError, err.Error())
		return err
	}
	f.log.Info(ctx, "signed out")
	return nil
}

func (f *AuthFlow) redirect(r Route) {
	if f.onSuccess != nil {
		f.onSuccess(r)
	}
}
