package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeStore) Rollover(_ context.Context, asOf time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, asOf)
	return f.err
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestNextMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid afternoon",
			now:  time.Date(2024, 3, 10, 15, 30, 45, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "just before midnight",
			now:  time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly midnight fires the next day",
			now:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month boundary",
			now:  time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "year boundary",
			now:  time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC),
			want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "keeps the location",
			now:  time.Date(2024, 3, 10, 21, 0, 0, 0, loc),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextMidnight(tt.now)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Equal(t, tt.now.Location(), got.Location())
		})
	}
}

func TestRunOnce(t *testing.T) {
	store := &fakeStore{}
	clock := &fakeClock{now: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}
	w := NewRolloverWorker(store, clock, nil, nil)

	w.runOnce(context.Background())

	require.Equal(t, 1, store.callCount())
	assert.True(t, store.calls[0].Equal(clock.now))
}

func TestRunOnce_StoreFailureDoesNotPanic(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	clock := &fakeClock{now: time.Now()}
	w := NewRolloverWorker(store, clock, nil, nil)

	w.runOnce(context.Background())
	w.runOnce(context.Background())

	assert.Equal(t, 2, store.callCount(), "a failed sweep is simply retried")
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	w := NewRolloverWorker(store, &fakeClock{now: time.Now()}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Zero(t, store.callCount())
}

func TestStart_FiresAtMidnight(t *testing.T) {
	store := &fakeStore{}
	// Pin the clock just shy of midnight so the first timer fires almost
	// immediately.
	clock := &fakeClock{now: time.Date(2024, 3, 10, 23, 59, 59, int(time.Second-50*time.Millisecond), time.UTC)}
	w := NewRolloverWorker(store, clock, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.callCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
