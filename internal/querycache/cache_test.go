package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(value string, calls *atomic.Int32) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestGet_CachesSuccessfulLoads(t *testing.T) {
	c := New(16, 0)
	var calls atomic.Int32

	v, err := Get(context.Background(), c, FeedsKey, counting("a", &calls))
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = Get(context.Background(), c, FeedsKey, counting("b", &calls))
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_DoesNotCacheFailures(t *testing.T) {
	c := New(16, 0)
	boom := errors.New("backend down")

	_, err := Get(context.Background(), c, FeedsKey, func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	var calls atomic.Int32
	v, err := Get(context.Background(), c, FeedsKey, counting("ok", &calls))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_SharesConcurrentMisses(t *testing.T) {
	c := New(16, 0)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Get(context.Background(), c, ArticlesKey, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestGet_CachesNilPointer(t *testing.T) {
	type summary struct{ text string }
	c := New(16, 0)
	var calls atomic.Int32
	load := func(context.Context) (*summary, error) {
		calls.Add(1)
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		v, err := Get(context.Background(), c, SummaryKey("a1"), load)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidate(t *testing.T) {
	c := New(16, 0)
	var calls atomic.Int32
	_, _ = Get(context.Background(), c, FeedsKey, counting("a", &calls))
	_, _ = Get(context.Background(), c, ArticleKey("1"), counting("a", &calls))

	c.Invalidate(FeedsKey)

	_, _ = Get(context.Background(), c, FeedsKey, counting("a", &calls))
	_, _ = Get(context.Background(), c, ArticleKey("1"), counting("a", &calls))
	assert.Equal(t, int32(3), calls.Load())
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(16, 0)
	var calls atomic.Int32
	for _, key := range []string{ArticlesKey, FeedArticlesKey("f1"), FeedArticlesKey("f2"), ArticleKey("a1"), FeedsKey} {
		_, _ = Get(context.Background(), c, key, counting("v", &calls))
	}

	c.InvalidatePrefix(ArticlesKey)

	assert.Equal(t, 2, c.Len())
	_, _ = Get(context.Background(), c, ArticleKey("a1"), counting("v", &calls))
	assert.Equal(t, int32(5), calls.Load())
}

func TestInvalidate_DuringLoadSkipsStore(t *testing.T) {
	c := New(16, 0)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string, 1)
	go func() {
		v, _ := Get(context.Background(), c, FeedsKey, func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()

	<-started
	c.Invalidate(FeedsKey)
	close(release)
	assert.Equal(t, "stale", <-done)

	var calls atomic.Int32
	v, err := Get(context.Background(), c, FeedsKey, counting("fresh", &calls))
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNew_ExpiresEntries(t *testing.T) {
	c := New(16, 20*time.Millisecond)
	var calls atomic.Int32

	_, _ = Get(context.Background(), c, FeedsKey, counting("a", &calls))
	time.Sleep(60 * time.Millisecond)
	_, _ = Get(context.Background(), c, FeedsKey, counting("a", &calls))

	assert.Equal(t, int32(2), calls.Load())
}

func TestNew_BoundsSize(t *testing.T) {
	c := New(2, 0)
	var calls atomic.Int32
	for _, key := range []string{ArticleKey("1"), ArticleKey("2"), ArticleKey("3")} {
		_, _ = Get(context.Background(), c, key, counting("v", &calls))
	}

	assert.Equal(t, 2, c.Len())
}

func TestGet_CanceledCallerDoesNotFailSharedLoad(t *testing.T) {
	c := New(16, 0)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value
	load := func(ctx context.Context) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		loadErr.Store(fmt.Sprint(ctx.Err()))
		return "feeds", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := Get(ctx, c, FeedsKey, load)
		first <- err
	}()
	<-started

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	second := make(chan string, 1)
	go func() {
		v, err := Get(context.Background(), c, FeedsKey, load)
		assert.NoError(t, err)
		second <- v
	}()
	close(release)

	assert.Equal(t, "feeds", <-second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "<nil>", loadErr.Load())
}
