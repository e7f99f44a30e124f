package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/config"
	"github.com/dmitrijs2005/bidmarket/internal/server/documents"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddr = "127.0.0.1:0"
	return c
}

func TestNewApp_DefaultsToMemory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	_, ok := app.repos.(*repomanager.MemoryRepositoryManager)
	assert.True(t, ok)
	require.NoError(t, app.Close())
}

func TestNewApp_PostgresAndS3Selected(t *testing.T) {
	origPG, origS3 := openPostgres, newS3Store
	t.Cleanup(func() { openPostgres, newS3Store = origPG, origS3 })

	var dsn string
	var s3cfg documents.S3Config
	openPostgres = func(_ context.Context, d string) (repomanager.RepositoryManager, error) {
		dsn = d
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	newS3Store = func(_ context.Context, c documents.S3Config) (documents.Store, error) {
		s3cfg = c
		return documents.NewMemoryStore(), nil
	}

	c := testConfig()
	c.DatabaseDSN = "postgres://u:p@localhost/db"
	c.S3BaseEndpoint = "http://localhost:9000"

	app, err := NewApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, c.DatabaseDSN, dsn)
	assert.Equal(t, "http://localhost:9000", s3cfg.Endpoint)
	assert.Equal(t, "bidmarket", s3cfg.Bucket)
	assert.Equal(t, c.S3RootUser, s3cfg.AccessKey)
}

func TestNewApp_BackendErrors(t *testing.T) {
	origPG, origS3 := openPostgres, newS3Store
	t.Cleanup(func() { openPostgres, newS3Store = origPG, origS3 })

	openPostgres = func(context.Context, string) (repomanager.RepositoryManager, error) {
		return nil, errors.New("refused")
	}
	c := testConfig()
	c.DatabaseDSN = "postgres://nowhere"
	_, err := NewApp(context.Background(), c, logging.Nop())
	require.ErrorContains(t, err, "db init error")

	openPostgres = origPG
	newS3Store = func(context.Context, documents.S3Config) (documents.Store, error) {
		return nil, errors.New("bad creds")
	}
	c = testConfig()
	c.S3BaseEndpoint = "http://localhost:9000"
	_, err = NewApp(context.Background(), c, logging.Nop())
	require.ErrorContains(t, err, "document store init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
