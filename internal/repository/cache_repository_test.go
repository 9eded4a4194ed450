package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "edu-erp:")
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "imports:1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "imports:1", map[string]string{"status": "queued"}, time.Minute))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "edu-erp:imports:1", repo.key("imports:1"))
}
