package attendance

import (
	"math"
	"time"
)

// BuildReport derives the attendance statistics for [from, to) from the raw
// visit log. Hours and weekdays are taken in UTC. Only closed sessions count
// towards the average duration.
func BuildReport(visits []Visit, from, to time.Time) Report {
	r := Report{
		From:          from,
		To:            to,
		TotalVisits:   len(visits),
		WeekdayVisits: make(map[string]int, 7),
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		r.WeekdayVisits[d.String()] = 0
	}

	members := make(map[int]struct{})
	var closed int
	var minutes float64
	for _, v := range visits {
		in := v.CheckInTime.UTC()
		members[v.MemberID] = struct{}{}
		r.HourlyVisits[in.Hour()]++
		r.WeekdayVisits[in.Weekday().String()]++
		if v.CheckOutTime != nil && !v.CheckOutTime.Before(v.CheckInTime) {
			closed++
			minutes += v.CheckOutTime.Sub(v.CheckInTime).Minutes()
		}
	}
	r.UniqueMembers = len(members)

	best := 0
	for h, n := range r.HourlyVisits {
		if n > best {
			best = n
			hour := h
			r.PeakHour = &hour
		}
	}

	if closed > 0 {
		r.AvgVisitMinutes = round2(minutes / float64(closed))
	}
	if days := spanDays(from, to); days > 0 {
		r.AvgVisitsPerDay = round2(float64(r.TotalVisits) / float64(days))
	}
	return r
}

func spanDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
