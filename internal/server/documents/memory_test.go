package documents

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	body := []byte("final report")
	require.NoError(t, s.Put(ctx, "k1", "application/pdf", body))
	body[0] = 'X'

	rc, ct, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "final report", string(got), "stored bytes are a copy")
	assert.Equal(t, "application/pdf", ct)

	_, _, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNewKey(t *testing.T) {
	k := NewKey("p-1", "C:\\work\\report.pdf")
	assert.True(t, strings.HasPrefix(k, "projects/p-1/"), k)
	assert.True(t, strings.HasSuffix(k, "-report.pdf"), k)
	assert.NotEqual(t, k, NewKey("p-1", "report.pdf"))

	assert.True(t, strings.HasSuffix(NewKey("p-1", ""), "-document"))
}
