// Package services contains the business logic of the development API.
// UserService handles signup with emailed one-time codes, login and the
// profile view; MarketService handles projects, bids and completion.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/cryptox"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/auth"
	"github.com/dmitrijs2005/bidmarket/internal/server/config"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	otpDigits = 6
	// maxOTPAttempts wrong codes discard the pending registration.
	maxOTPAttempts = 5
)

// CodeSender delivers a signup code to an email address.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log instead of mailing them.
type LogSender struct {
	Log logging.Logger
}

func (s LogSender) SendCode(ctx context.Context, email, code string) error {
	s.Log.Info(ctx, "signup code issued", "email", email, "otp", code)
	return nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   string
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResult is what login and signup verification return.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	sender      CodeSender
	log         logging.Logger
	jwtSecret   []byte
	tokenTTL    time.Duration
	otpTTL      time.Duration
	now         func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, sender CodeSender, log logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		sender:      sender,
		log:         log,
		jwtSecret:   []byte(cfg.SecretKey),
		tokenTTL:    cfg.AccessTokenValidityDuration,
		otpTTL:      cfg.OTPValidityDuration,
		now:         time.Now,
	}
}

// RequestOTP validates a signup, parks it as pending and sends a fresh code.
// Requesting again for the same email replaces the pending signup.
func (s *UserService) RequestOTP(ctx context.Context, reg Registration) (string, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = normalizeEmail(reg.Email)
	reg.Role = strings.ToUpper(strings.TrimSpace(reg.Role))

	if reg.Name == "" || reg.Email == "" || reg.Password == "" || reg.Role == "" {
		return "", fail(common.ErrValidation, "All fields are required")
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return "", fail(common.ErrValidation, "Invalid email address")
	}
	if reg.Role != models.RoleBuyer && reg.Role != models.RoleSeller {
		return "", fail(common.ErrValidation, "Role must be BUYER or SELLER")
	}

	_, err := s.repomanager.Users().GetByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		return "", fail(common.ErrAlreadyExists, "User already exists")
	case !errors.Is(err, common.ErrNotFound):
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	salt, hash, err := cryptox.HashPassword([]byte(reg.Password))
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	code, err := common.RandomDigits(otpDigits)
	if err != nil {
		return "", fmt.Errorf("error generating otp: %w", err)
	}

	pending := &models.PendingRegistration{
		Email:        reg.Email,
		Name:         reg.Name,
		Role:         reg.Role,
		Salt:         salt,
		PasswordHash: hash,
		Code:         code,
		ExpiresAt:    s.now().Add(s.otpTTL),
	}
	if err := s.repomanager.Registrations().Upsert(ctx, pending); err != nil {
		return "", fmt.Errorf("error saving registration: %w", err)
	}
	if err := s.sender.SendCode(ctx, reg.Email, code); err != nil {
		return "", fmt.Errorf("error sending otp: %w", err)
	}

	return "OTP sent to " + reg.Email, nil
}

// VerifyOTP turns a pending signup into an account and signs the user in.
func (s *UserService) VerifyOTP(ctx context.Context, email, otp string) (*AuthResult, error) {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return nil, fail(common.ErrValidation, "Email and OTP are required")
	}

	var user *models.User
	var rejected error
	err := s.repomanager.WithinTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		pending, err := r.Registrations().Get(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fail(common.ErrValidation, "No OTP requested for this email")
			}
			return err
		}
		if s.now().After(pending.ExpiresAt) {
			if err := r.Registrations().Delete(ctx, email); err != nil {
				return err
			}
			return fail(common.ErrValidation, "OTP has expired, please request a new one")
		}
		if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(otp)) != 1 {
			// The count must commit, so the tx succeeds and the
			// rejection is returned after it.
			n, err := r.Registrations().AddFailedAttempt(ctx, email)
			if err != nil {
				return err
			}
			rejected = fail(common.ErrValidation, "Invalid OTP")
			if n >= maxOTPAttempts {
				rejected = fail(common.ErrValidation, "Too many invalid attempts, please request a new OTP")
				return r.Registrations().Delete(ctx, email)
			}
			return nil
		}

		user, err = r.Users().Create(ctx, &models.User{
			ID:           uuid.NewString(),
			Name:         pending.Name,
			Email:        pending.Email,
			Role:         pending.Role,
			Salt:         pending.Salt,
			PasswordHash: pending.PasswordHash,
		})
		if err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return fail(common.ErrAlreadyExists, "User already exists")
			}
			return err
		}
		return r.Registrations().Delete(ctx, email)
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		s.log.Warn(ctx, "invalid otp", "email", email)
		return nil, rejected
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fail(common.ErrValidation, "Email and password are required")
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fail(common.ErrUnauthorized, "Invalid email or password")
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if !cryptox.VerifyPassword([]byte(password), user.Salt, user.PasswordHash) {
		return nil, fail(common.ErrUnauthorized, "Invalid email or password")
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token to its principal.
func (s *UserService) Authenticate(token string) (*Principal, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

// Details is the profile payload: the user plus the projects and bids they
// are involved in.
type Details struct {
	*models.User
	ProjectsCreated []models.Project `json:"projectsCreated"`
	ProjectsTaken   []models.Project `json:"projectsTaken"`
	Bids            []models.Bid     `json:"bids"`
}

func (s *UserService) Details(ctx context.Context, p Principal) (*Details, error) {
	user, err := s.repomanager.Users().GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fail(common.ErrUnauthorized, "User no longer exists")
		}
		return nil, err
	}

	projects := s.repomanager.Projects()
	d := &Details{User: user}
	if d.ProjectsCreated, err = projects.ListByBuyer(ctx, user.ID); err != nil {
		return nil, err
	}
	if d.ProjectsTaken, err = projects.ListBySeller(ctx, user.ID); err != nil {
		return nil, err
	}
	if d.Bids, err = projects.ListBidsBySeller(ctx, user.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
