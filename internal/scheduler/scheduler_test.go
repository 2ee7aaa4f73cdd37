package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-loans-backend/internal/config"
	"library-loans-backend/internal/jobs"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{ReportOverdueTransactions: "0 0 6 * * *"}}
	s, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())
}

func TestNewScheduler_BadSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{ReportOverdueTransactions: "every morning"}}
	_, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
	assert.Error(t, err)
}
