package school

import (
	"context"

	"edusync/internal/store"
)

func strPtr(s string) *string { return &s }

var seedStudents = []NewStudent{
	{Name: "Arun Kumar", Email: "arun@example.com", RollNumber: "CS21001", ClassName: "Computer Science A", CareerInterest: strPtr("Software Engineer")},
	{Name: "Divya Sharma", Email: "divya@example.com", RollNumber: "CS21002", ClassName: "Computer Science A", CareerInterest: strPtr("Data Scientist")},
	{Name: "Rahul Patel", Email: "rahul@example.com", RollNumber: "CS21003", ClassName: "Computer Science B", CareerInterest: strPtr("Mobile Developer")},
	{Name: "Priya Singh", Email: "priya@example.com", RollNumber: "CS21004", ClassName: "Computer Science B", CareerInterest: strPtr("AI Engineer")},
}

var seedTasks = []Task{
	{
		Title:           "Complete Python Basics Tutorial",
		Description:     strPtr("Learn Python fundamentals with hands-on coding"),
		Subject:         strPtr("Programming"),
		DifficultyLevel: Easy,
		EstimatedTime:   45,
		TaskType:        TaskPractice,
	},
	{
		Title:           "Math Problem Set - Calculus",
		Description:     strPtr("Solve 10 integration problems"),
		Subject:         strPtr("Mathematics"),
		DifficultyLevel: Medium,
		EstimatedTime:   60,
		TaskType:        TaskAssignment,
	},
	{
		Title:           "Data Structures Project",
		Description:     strPtr("Implement a binary search tree"),
		Subject:         strPtr("Computer Science"),
		DifficultyLevel: Hard,
		EstimatedTime:   120,
		TaskType:        TaskProject,
	},
}

// EnsureSeeded inserts the sample students and tasks in one transaction when
// the students table is empty. It reports whether anything was written.
func (s *Service) EnsureSeeded(ctx context.Context) (bool, error) {
	seeded := false
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		exists, err := s.repo.HasStudents(ctx, sess)
		if err != nil || exists {
			return err
		}
		now := s.stamp()
		err = sess.InTx(ctx, func(q store.Querier) error {
			for _, in := range seedStudents {
				if _, err := s.repo.InsertStudent(ctx, q, in, now); err != nil {
					return err
				}
			}
			for _, t := range seedTasks {
				t.CreatedAt = now
				t.IsActive = true
				if _, err := s.repo.InsertTask(ctx, q, t); err != nil {
					return err
				}
			}
			return nil
		})
		seeded = err == nil
		return err
	})
	return seeded, err
}
