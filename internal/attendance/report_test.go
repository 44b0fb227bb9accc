package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday.
var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func visit(member int, in time.Time, minutes int) Visit {
	v := Visit{MemberID: member, CheckInTime: in}
	if minutes >= 0 {
		out := in.Add(time.Duration(minutes) * time.Minute)
		v.CheckOutTime = &out
	}
	return v
}

func TestBuildReport_EmptyRangeYieldsZeros(t *testing.T) {
	r := BuildReport(nil, day, day.AddDate(0, 0, 7))

	assert.Zero(t, r.TotalVisits)
	assert.Zero(t, r.UniqueMembers)
	assert.Nil(t, r.PeakHour)
	assert.Zero(t, r.AvgVisitMinutes)
	assert.Zero(t, r.AvgVisitsPerDay)
	assert.Len(t, r.WeekdayVisits, 7)
	assert.Equal(t, 0, r.WeekdayVisits["Monday"])
}

func TestBuildReport(t *testing.T) {
	visits := []Visit{
		visit(1, day.Add(7*time.Hour), 60),
		visit(2, day.Add(7*time.Hour+30*time.Minute), 30),
		visit(1, day.Add(24*time.Hour+18*time.Hour), 90),
		visit(3, day.Add(24*time.Hour+7*time.Hour), -1),
	}

	r := BuildReport(visits, day, day.AddDate(0, 0, 2))

	assert.Equal(t, 4, r.TotalVisits)
	assert.Equal(t, 3, r.UniqueMembers)
	assert.Equal(t, 3, r.HourlyVisits[7])
	assert.Equal(t, 1, r.HourlyVisits[18])
	require.NotNil(t, r.PeakHour)
	assert.Equal(t, 7, *r.PeakHour)
	assert.Equal(t, 2, r.WeekdayVisits["Monday"])
	assert.Equal(t, 2, r.WeekdayVisits["Tuesday"])
	assert.Equal(t, 60.0, r.AvgVisitMinutes)
	assert.Equal(t, 2.0, r.AvgVisitsPerDay)
}

func TestBuildReport_PeakHourPrefersEarliestOnTie(t *testing.T) {
	visits := []Visit{
		visit(1, day.Add(6*time.Hour), 10),
		visit(2, day.Add(19*time.Hour), 10),
	}

	r := BuildReport(visits, day, day.AddDate(0, 0, 1))
	require.NotNil(t, r.PeakHour)
	assert.Equal(t, 6, *r.PeakHour)
	assert.Equal(t, 2.0, r.AvgVisitsPerDay)
}
