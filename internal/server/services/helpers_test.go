package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/config"
	"github.com/dmitrijs2005/bidmarket/internal/server/documents"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) SendCode(_ context.Context, email, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.codes == nil {
		b.codes = map[string]string{}
	}
	b.codes[email] = code
	return nil
}

func (b *codeBox) code(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

type fixture struct {
	users  *UserService
	market *MarketService
	repos  *repomanager.MemoryRepositoryManager
	docs   *documents.MemoryStore
	box    *codeBox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.OTPValidityDuration = time.Minute

	f := &fixture{
		repos: repomanager.NewMemoryRepositoryManager(),
		docs:  documents.NewMemoryStore(),
		box:   &codeBox{},
	}
	f.users = NewUserService(f.repos, cfg, f.box, logging.Nop())
	f.market = NewMarketService(f.repos, f.docs, logging.Nop())
	return f
}

// signUp registers an account through the OTP flow and returns its principal.
func (f *fixture) signUp(t *testing.T, name, email, role string) Principal {
	t.Helper()
	ctx := context.Background()
	_, err := f.users.RequestOTP(ctx, Registration{Name: name, Email: email, Password: "pw-" + name, Role: role})
	require.NoError(t, err)
	res, err := f.users.VerifyOTP(ctx, email, f.box.code(email))
	require.NoError(t, err)
	return Principal{UserID: res.User.ID, Role: res.User.Role}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// linkStore adds presigning to the memory store.
type linkStore struct {
	*documents.MemoryStore
}

func (linkStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://docs.example.com/" + key, nil
}
