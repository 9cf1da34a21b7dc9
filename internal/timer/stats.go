package timer

import (
	"math"
)

// Stats is the staff dashboard summary for one month.
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveSessions int `json:"activeSessions"`
	MonthlyHours   int `json:"monthlyHours"`
	AvgHours       int `json:"avgHours"`
}

// MonthStats summarizes one month from aggregate queries rather than a
// per-user scan, so cost stays flat as users accumulate sessions.
func (s *Service) MonthStats(month string) (*Stats, error) {
	var st Stats
	var err error

	if st.TotalUsers, err = s.users.Count(); err != nil {
		return nil, err
	}
	if st.ActiveSessions, err = s.sessions.CountActive(); err != nil {
		return nil, err
	}
	minutes, err := s.sessions.SumDurationForMonth(month)
	if err != nil {
		return nil, err
	}

	st.MonthlyHours = int(math.Round(float64(minutes) / 60))
	if st.TotalUsers > 0 {
		st.AvgHours = int(math.Round(float64(minutes) / 60 / float64(st.TotalUsers)))
	}
	return &st, nil
}
