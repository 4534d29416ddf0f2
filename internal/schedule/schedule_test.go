package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sensorfor/downloader/internal/config"
	"github.com/sensorfor/downloader/internal/testutil"
)

// 2024-03-17 is a Sunday.
var sunday = time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)

func TestWeekly_Next(t *testing.T) {
	monday2am := Weekly{Day: time.Monday, Hour: 2}

	tests := []struct {
		name   string
		weekly Weekly
		now    time.Time
		want   time.Time
	}{
		{
			name:   "later this week",
			weekly: monday2am,
			now:    sunday,
			want:   time.Date(2024, 3, 18, 2, 0, 0, 0, time.UTC),
		},
		{
			name:   "later today",
			weekly: Weekly{Day: time.Sunday, Hour: 23, Minute: 30},
			now:    sunday,
			want:   time.Date(2024, 3, 17, 23, 30, 0, 0, time.UTC),
		},
		{
			name:   "earlier today rolls to next week",
			weekly: Weekly{Day: time.Sunday, Hour: 8},
			now:    sunday,
			want:   time.Date(2024, 3, 24, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "exactly now rolls to next week",
			weekly: monday2am,
			now:    time.Date(2024, 3, 18, 2, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 3, 25, 2, 0, 0, 0, time.UTC),
		},
		{
			name:   "just after trigger",
			weekly: monday2am,
			now:    time.Date(2024, 3, 18, 2, 0, 1, 0, time.UTC),
			want:   time.Date(2024, 3, 25, 2, 0, 0, 0, time.UTC),
		},
		{
			name:   "across month end",
			weekly: Weekly{Day: time.Tuesday, Hour: 6},
			now:    time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 4, 2, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.weekly.Next(tt.now))
		})
	}
}

func TestWeekly_NextKeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2024, 3, 17, 12, 0, 0, 0, loc)

	next := Weekly{Day: time.Monday, Hour: 2}.Next(now)

	assert.Equal(t, loc, next.Location())
	assert.Equal(t, 2, next.Hour())
}

func TestFromConfig(t *testing.T) {
	w := FromConfig(config.Schedule{Day: "friday", Time: "23:30"})
	assert.Equal(t, Weekly{Day: time.Friday, Hour: 23, Minute: 30}, w)
	assert.Equal(t, "every Friday at 23:30", w.String())
}

func TestScheduler_RunsJobAtTrigger(t *testing.T) {
	clock := testutil.NewFakeClock(sunday)
	ran := make(chan time.Time, 4)
	job := func(context.Context) { ran <- clock.Now() }

	s := New(Weekly{Day: time.Monday, Hour: 2}, job, zaptest.NewLogger(t), clock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	clock.BlockUntil(1)
	next, ok := clock.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 18, 2, 0, 0, 0, time.UTC), next)

	clock.Advance(14 * time.Hour)
	assert.Equal(t, time.Date(2024, 3, 18, 2, 0, 0, 0, time.UTC), <-ran)

	// The loop re-arms for the following week.
	clock.BlockUntil(1)
	next, ok = clock.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 25, 2, 0, 0, 0, time.UTC), next)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Len(t, ran, 0)
}

func TestScheduler_StopsWithoutRunningWhenCancelled(t *testing.T) {
	clock := testutil.NewFakeClock(sunday)
	var runs atomic.Int32

	s := New(Weekly{Day: time.Monday}, func(context.Context) { runs.Add(1) }, zaptest.NewLogger(t), clock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, runs.Load())
}

func TestScheduler_SurvivesPanickingJob(t *testing.T) {
	clock := testutil.NewFakeClock(sunday)
	var runs atomic.Int32
	job := func(context.Context) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
	}

	s := New(Weekly{Day: time.Monday, Hour: 2}, job, zaptest.NewLogger(t), clock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	clock.BlockUntil(1)
	clock.Advance(14 * time.Hour)
	clock.BlockUntil(1)
	clock.Advance(7 * 24 * time.Hour)
	clock.BlockUntil(1)

	assert.Equal(t, int32(2), runs.Load())

	cancel()
	<-done
}

func TestNew_DefaultsToRealClock(t *testing.T) {
	s := New(Weekly{}, func(context.Context) {}, zaptest.NewLogger(t), nil)
	assert.IsType(t, RealClock{}, s.clock)
}
