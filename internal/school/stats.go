package school

import (
	"context"
	"math"
	"time"

	"edusync/internal/store"
)

// DashboardStats counts students, today's attendance rows and active tasks.
//
// AttendancePercentage is raw rows over students, so it exceeds 100 when
// students are marked more than once a day. It is deliberately not clamped.
func (s *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	since := startOfDay(s.now())

	var stats DashboardStats
	err := s.db.WithSession(ctx, func(sess *store.Session) (err error) {
		if stats.TotalStudents, err = s.repo.CountStudents(ctx, sess); err != nil {
			return err
		}
		if stats.AttendanceToday, err = s.repo.CountAttendanceSince(ctx, sess, since); err != nil {
			return err
		}
		stats.ActiveTasks, err = s.repo.CountActiveTasks(ctx, sess)
		return err
	})
	if err != nil {
		return DashboardStats{}, err
	}
	stats.AttendancePercentage = attendancePercentage(stats.AttendanceToday, stats.TotalStudents)
	return stats, nil
}

// startOfDay is midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// attendancePercentage rounds to one decimal place; zero students gives 0.
func attendancePercentage(marked, students int) float64 {
	if students <= 0 {
		return 0
	}
	return math.Round(float64(marked)/float64(students)*1000) / 10
}
