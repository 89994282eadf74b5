package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	assert.False(t, repo.Enabled())

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "documents:active", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "documents:active", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "documents:*"))
	assert.NoError(t, repo.Close())
}
