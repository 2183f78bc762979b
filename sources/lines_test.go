package sources_test

import (
	"bufio"
	"context"
	"iter"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"chunkseq/chunks"
	"chunkseq/sources"
)

type closeSpy struct {
	*strings.Reader
	closed int
}

func (c *closeSpy) Close() error {
	c.closed++
	return nil
}

func TestLines_Chunks(t *testing.T) {
	cur := chunks.New[string](sources.NewLines(strings.NewReader("a\nb\r\nc\n")), 2)

	var got [][]string
	for c, err := range cur.All() {
		require.NoError(t, err)
		got = append(got, c.Collect())
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, got)
}

func TestLines_ClosePassesThrough(t *testing.T) {
	spy := &closeSpy{Reader: strings.NewReader("x\ny\n")}
	cur := chunks.New[string](sources.NewLines(spy), 1)

	require.NoError(t, cur.Close())
	assert.Equal(t, 1, spy.closed)
}

func TestLines_TooLongIsSourceError(t *testing.T) {
	lines := sources.NewLines(strings.NewReader(strings.Repeat("x", 100))).Buffer(make([]byte, 0, 8), 16)

	_, err := chunks.New[string](lines, 4).Extract()
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestMap_ConversionErrorPoisons(t *testing.T) {
	src := sources.Map[string, int](sources.NewLines(strings.NewReader("1\n2\nthree\n4\n")), strconv.Atoi)
	cur := chunks.New(src, 2)

	first, err := cur.Extract()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, first.Collect())

	_, err = cur.Extract()
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Equal(t, chunks.Poisoned, cur.State())
}

func TestThrottle_PassesItemsThrough(t *testing.T) {
	src := sources.Throttle(context.Background(), chunks.FromSlice([]int{1, 2, 3, 4, 5}), rate.NewLimiter(rate.Inf, 1))

	var got []int
	for c, err := range chunks.New(src, 2).All() {
		require.NoError(t, err)
		got = append(got, c.Collect()...)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestThrottle_LimitsRate(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(10*time.Millisecond), 1)
	src := sources.Throttle(context.Background(), chunks.FromSlice([]int{1, 2, 3, 4, 5, 6}), limiter)

	start := time.Now()
	c, err := chunks.New(src, 6).Extract()
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestThrottle_CancelledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := sources.Throttle(ctx, chunks.FromSlice([]int{1}), rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := chunks.New(src, 1).Extract()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottle_ClosesInner(t *testing.T) {
	stopped := false
	var seq iter.Seq[int] = func(yield func(int) bool) {
		defer func() { stopped = true }()
		for i := 0; ; i++ {
			if !yield(i) {
				return
			}
		}
	}
	cur := chunks.New(sources.Throttle(context.Background(), chunks.Source[int](chunks.FromSeq(seq)), rate.NewLimiter(rate.Inf, 1)), 3)

	_, err := cur.Extract()
	require.NoError(t, err)
	require.NoError(t, cur.Close())
	assert.True(t, stopped)
}
