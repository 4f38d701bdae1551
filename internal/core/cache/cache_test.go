package cache

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if b, ok := value.([]byte); ok {
		m.data[key] = string(b)
	} else {
		m.data[key] = fmt.Sprint(value)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type item struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

func TestGetOrLoadJSONCachesValue(t *testing.T) {
	mock := newMockCmdable()
	c := &Cache{store: mock}
	loads := 0
	load := func(context.Context) (*[]item, error) {
		loads++
		v := []item{{ID: "p1", Price: 10}}
		return &v, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrLoadJSON(c, context.Background(), "catalog", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []item{{ID: "p1", Price: 10}}, *got)
	}
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, mock.sets)

	require.NoError(t, c.Invalidate(context.Background(), "catalog"))
	_, err := GetOrLoadJSON(c, context.Background(), "catalog", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	mock := newMockCmdable()
	c := &Cache{store: mock}
	boom := stdErrors.New("db down")

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mock.data)
}

func TestNilCacheLoadsThrough(t *testing.T) {
	var c *Cache
	loads := 0
	for i := 0; i < 2; i++ {
		b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
			loads++
			return []byte(`"v"`), nil
		})
		require.NoError(t, err)
		assert.Equal(t, `"v"`, string(b))
	}
	assert.Equal(t, 2, loads)
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
