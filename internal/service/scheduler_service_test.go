package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("21:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 21 * * *", spec)

	for _, raw := range []string{"", "25:00", "10:75", "10", "aa:bb"} {
		_, err := buildDailySpec(raw)
		assert.Error(t, err, raw)
	}
}

func TestScheduleJobs(t *testing.T) {
	s := NewSchedulerService(time.Local)

	daily, err := s.ScheduleDaily("07:30", func() {})
	require.NoError(t, err)
	refresh, err := s.ScheduleInterval(time.Minute, func() {})
	require.NoError(t, err)
	assert.True(t, s.cron.Entry(daily).Valid())
	assert.True(t, s.cron.Entry(refresh).Valid())
	assert.Len(t, s.cron.Entries(), 2)

	_, err = s.ScheduleInterval(0, func() {})
	assert.Error(t, err)
}

func TestScheduleIntervalRuns(t *testing.T) {
	s := NewSchedulerService(time.Local)
	ran := make(chan struct{}, 1)
	_, err := s.ScheduleInterval(time.Second, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("interval job did not run")
	}
}
