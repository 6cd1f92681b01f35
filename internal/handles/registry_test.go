package handles

import (
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateResolveRevoke(t *testing.T) {
	r := NewRegistry()
	b := models.NewBlob([]byte("pixels"), "image/avif")

	h := r.Create(b)
	assert.True(t, strings.HasPrefix(h, "blob:"))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Resolve(h)
	require.True(t, ok)
	assert.Same(t, b, got)

	assert.True(t, r.Revoke(h))
	assert.False(t, r.Revoke(h), "second revoke must be a no-op")
	_, ok = r.Resolve(h)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestRegistry_HandlesAreNotShared(t *testing.T) {
	r := NewRegistry()
	b := models.NewBlob([]byte("same bytes"), "")

	h1 := r.Create(b)
	h2 := r.Create(b)
	assert.NotEqual(t, h1, h2)

	r.Revoke(h1)
	_, ok := r.Resolve(h2)
	assert.True(t, ok)
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := r.Create(models.NewBlob(nil, ""))
			r.Revoke(h)
		}()
	}
	wg.Wait()
	assert.Zero(t, r.Len())
}
