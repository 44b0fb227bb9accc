package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymhub/internal/apperr"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusActive, StatusFrozen, true},
		{StatusFrozen, StatusActive, true},
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusFrozen, false},
		{StatusExpired, StatusActive, false},
		{StatusCancelled, StatusActive, false},
		{StatusFrozen, StatusFrozen, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestActionTarget(t *testing.T) {
	to, err := ActionTarget("freeze", StatusActive)
	require.NoError(t, err)
	assert.Equal(t, StatusFrozen, to)

	to, err = ActionTarget("unfreeze", StatusFrozen)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, to)

	_, err = ActionTarget("unfreeze", StatusPending)
	assert.ErrorIs(t, err, apperr.ErrStateTransition)

	_, err = ActionTarget("pause", StatusActive)
	assert.True(t, apperr.IsValidation(err))
}

func TestWindow(t *testing.T) {
	plan := Plan{DurationDays: 30}

	status, end := Window(plan, now, now)
	assert.Equal(t, StatusActive, status)
	assert.Equal(t, now.AddDate(0, 0, 30), end)

	later := now.Add(72 * time.Hour)
	status, end = Window(plan, later, now)
	assert.Equal(t, StatusPending, status)
	assert.Equal(t, later.AddDate(0, 0, 30), end)
}

func TestExtendedEnd(t *testing.T) {
	frozen := now.Add(-5 * 24 * time.Hour)
	m := Membership{EndDate: now.Add(10 * 24 * time.Hour), FrozenAt: &frozen}

	assert.Equal(t, now.Add(15*24*time.Hour), ExtendedEnd(m, now))

	m.FrozenAt = nil
	assert.Equal(t, m.EndDate, ExtendedEnd(m, now))
}
