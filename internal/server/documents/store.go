// Package documents stores the deliverables sellers upload when they
// complete a project.
package documents

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store keeps documents by key. Get returns common.ErrNotFound for an unknown
// key; callers close the returned body.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Presigner is implemented by stores that can hand out a temporary direct
// download link instead of streaming through the API.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// NewKey builds a unique storage key for a project document, keeping the
// base name of the uploaded file for readability.
func NewKey(projectID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return fmt.Sprintf("projects/%s/%s-%s", projectID, uuid.NewString(), name)
}
