package distlock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "scoring:industry:*", time.Minute)
	b := NewRedisLock(client, "scoring:industry:*", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:scoring:industry:*"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire")

	assert.ErrorIs(t, b.Release(ctx), ErrNotHeld)
	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:scoring:industry:*"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ExpiresAndExtends(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	l := NewRedisLock(client, "k", time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Extend(ctx, 10*time.Second))
	mr.FastForward(5 * time.Second)
	assert.True(t, mr.Exists(l.Key()))

	mr.FastForward(6 * time.Second)
	assert.False(t, mr.Exists(l.Key()))
	assert.ErrorIs(t, l.Extend(ctx, time.Second), ErrNotHeld)
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "pattern:industry:retail")
	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background()))
	assert.ErrorIs(t, l.Release(context.Background()), ErrNotHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLock_Backends(t *testing.T) {
	_, client := setupTestRedis(t)
	assert.IsType(t, &RedisLock{}, NewLock(client, nil, "k", time.Second))

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &PGAdvisoryLock{}, NewLock(nil, db, "k", time.Second))
	assert.IsType(t, noopLock{}, NewLock(nil, nil, "k", time.Second))
}

func TestGuard_SharesInFlightRun(t *testing.T) {
	_, client := setupTestRedis(t)
	g := NewGuard(NewFactory(client, nil, time.Minute))

	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	var wg sync.WaitGroup
	results := make([]any, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := g.Do(context.Background(), "scoring", func(ctx context.Context) (any, error) {
				atomic.AddInt32(&calls, 1)
				once.Do(func() { close(started) })
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGuard_BusyAcrossProcesses(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	// another process holds the scope
	other := NewRedisLock(client, "pattern:industry:*", time.Minute)
	ok, err := other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	g := NewGuard(NewFactory(client, nil, time.Minute))
	_, _, err = g.Do(ctx, "pattern:industry:*", func(context.Context) (any, error) {
		t.Fatal("must not run while held elsewhere")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, other.Release(ctx))
	v, _, err := g.Do(ctx, "pattern:industry:*", func(context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGuard_NilFactory(t *testing.T) {
	g := NewGuard(nil)
	v, shared, err := g.Do(context.Background(), "k", func(context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, 1, v)
}
