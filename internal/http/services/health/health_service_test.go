package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/cache"
)

type fakeStore struct{ err error }

func (f fakeStore) Ping(context.Context) error { return f.err }
func (f fakeStore) Driver() string             { return "fake" }

type downCache struct{ cache.Client }

func (downCache) Ping(context.Context) error { return errors.New("dial tcp: refused") }

func TestCheck(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory("t", time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	tests := []struct {
		name       string
		deps       Deps
		status     string
		storeState string
		cacheState string
	}{
		{"ready without cache", Deps{Store: fakeStore{}}, "ready", "ok", "disabled"},
		{"ready with cache", Deps{Store: fakeStore{}, Cache: mem}, "ready", "ok", "ok"},
		{"store down", Deps{Store: fakeStore{err: errors.New("down")}}, "unavailable", "error", "disabled"},
		{"cache down", Deps{Store: fakeStore{}, Cache: downCache{}}, "degraded", "ok", "error"},
		{"no store", Deps{}, "unavailable", "error", "disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.deps.Version = "1.2.3"
			resp := NewHealthService(tt.deps).Check(ctx)

			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "1.2.3", resp.Version)
			require.Contains(t, resp.Components, "store")
			require.Contains(t, resp.Components, "cache")
			assert.Equal(t, tt.storeState, resp.Components["store"].Status)
			assert.Equal(t, tt.cacheState, resp.Components["cache"].Status)
			assert.False(t, resp.Timestamp.IsZero())
		})
	}
}
