package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerJobRegistration(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob(ReminderSweepJobName, "0 0 2 * * *", func() {}))
	require.NoError(t, s.AddJob(QuoteExpiryJobName, "@daily", func() {}))

	t.Run("duplicate names are rejected", func(t *testing.T) {
		err := s.AddJob(ReminderSweepJobName, "@every 1h", func() {})
		assert.ErrorContains(t, err, "already registered")
	})

	t.Run("malformed cron expressions are rejected", func(t *testing.T) {
		err := s.AddJob("bad", "not a cron line", func() {})
		assert.ErrorContains(t, err, "failed to schedule")
	})
}
