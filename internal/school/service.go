package school

import (
	"context"
	"fmt"
	"time"

	"edusync/internal/store"
)

// Sessions hands out scoped storage sessions. *store.DB implements it.
type Sessions interface {
	WithSession(ctx context.Context, fn func(*store.Session) error) error
}

// Service implements the school operations. Every call runs inside exactly
// one storage session.
type Service struct {
	db       Sessions
	repo     *Repository
	selector TaskSelector
	now      func() time.Time
}

// NewService creates a service. A nil selector falls back to random sampling.
func NewService(db Sessions, repo *Repository, selector TaskSelector) *Service {
	if selector == nil {
		selector = NewRandomSelector()
	}
	return &Service{db: db, repo: repo, selector: selector, now: time.Now}
}

// stamp is the creation time written to new rows. Postgres keeps microseconds,
// so the value is truncated to match what a later read returns.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// CreateStudent fails with *ConflictError when email or roll number is taken.
// Two concurrent creates with the same email race on the unique index and the
// loser also gets a *ConflictError.
func (s *Service) CreateStudent(ctx context.Context, in NewStudent) (Student, error) {
	var created Student
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		if err := s.repo.StudentConflict(ctx, sess, in.Email, in.RollNumber); err != nil {
			return err
		}
		st, err := s.repo.InsertStudent(ctx, sess, in, s.stamp())
		if store.IsUniqueViolation(err) {
			if cerr := s.repo.StudentConflict(ctx, sess, in.Email, in.RollNumber); cerr != nil {
				return cerr
			}
			return &ConflictError{Field: "email", Value: in.Email}
		}
		if err != nil {
			return err
		}
		created = st
		return nil
	})
	return created, err
}

func (s *Service) GetStudent(ctx context.Context, id int64) (Student, error) {
	var st Student
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		found, err := s.repo.GetStudent(ctx, sess, id)
		if err != nil {
			return err
		}
		if found == nil {
			return &NotFoundError{Entity: "Student", ID: id}
		}
		st = *found
		return nil
	})
	return st, err
}

func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	var students []Student
	err := s.db.WithSession(ctx, func(sess *store.Session) (err error) {
		students, err = s.repo.ListStudents(ctx, sess)
		return err
	})
	return students, err
}

// MarkAttendance records the student as present now, marked by the system.
// An empty subject becomes DefaultSubject.
func (s *Service) MarkAttendance(ctx context.Context, studentID int64, subject string) (Attendance, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	var rec Attendance
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		st, err := s.repo.GetStudent(ctx, sess, studentID)
		if err != nil {
			return err
		}
		if st == nil {
			return &NotFoundError{Entity: "Student", ID: studentID}
		}
		rec, err = s.repo.InsertAttendance(ctx, sess, Attendance{
			StudentID:      studentID,
			Subject:        subject,
			AttendanceType: Present,
			Timestamp:      s.stamp(),
			MarkedBy:       MarkedBySystem,
		})
		return err
	})
	return rec, err
}

// StudentAttendance lists a student's attendance. Unknown students get an
// empty list.
func (s *Service) StudentAttendance(ctx context.Context, studentID int64) ([]Attendance, error) {
	var records []Attendance
	err := s.db.WithSession(ctx, func(sess *store.Session) (err error) {
		records, err = s.repo.ListAttendance(ctx, sess, &studentID)
		return err
	})
	return records, err
}

func (s *Service) AllAttendance(ctx context.Context) ([]Attendance, error) {
	var records []Attendance
	err := s.db.WithSession(ctx, func(sess *store.Session) (err error) {
		records, err = s.repo.ListAttendance(ctx, sess, nil)
		return err
	})
	return records, err
}

func (s *Service) ActiveTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := s.db.WithSession(ctx, func(sess *store.Session) (err error) {
		tasks, err = s.repo.ListActiveTasks(ctx, sess)
		return err
	})
	return tasks, err
}

// GetTask returns a task whether or not it is active.
func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	var t Task
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		found, err := s.repo.GetTask(ctx, sess, id)
		if err != nil {
			return err
		}
		if found == nil {
			return &NotFoundError{Entity: "Task", ID: id}
		}
		t = *found
		return nil
	})
	return t, err
}

// DeactivateTask hides a task from listings and recommendations.
func (s *Service) DeactivateTask(ctx context.Context, id int64) error {
	return s.db.WithSession(ctx, func(sess *store.Session) error {
		ok, err := s.repo.SetTaskActive(ctx, sess, id, false)
		if err != nil {
			return err
		}
		if !ok {
			return &NotFoundError{Entity: "Task", ID: id}
		}
		return nil
	})
}

// RecommendTasks asks the selector for up to RecommendationLimit active tasks.
func (s *Service) RecommendTasks(ctx context.Context, studentID int64) (Recommendation, error) {
	var rec Recommendation
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		st, err := s.repo.GetStudent(ctx, sess, studentID)
		if err != nil {
			return err
		}
		if st == nil {
			return &NotFoundError{Entity: "Student", ID: studentID}
		}
		active, err := s.repo.ListActiveTasks(ctx, sess)
		if err != nil {
			return err
		}
		rec = Recommendation{
			StudentID:        st.ID,
			StudentName:      st.Name,
			CareerInterest:   st.CareerInterest,
			RecommendedTasks: s.selector.Select(*st, active, RecommendationLimit),
		}
		return nil
	})
	return rec, err
}

// AssignTask assigns a task to a student. The student is checked before the
// task, so a request where both are missing reports the student.
func (s *Service) AssignTask(ctx context.Context, studentID, taskID int64) (Assignment, error) {
	var out Assignment
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		st, err := s.repo.GetStudent(ctx, sess, studentID)
		if err != nil {
			return err
		}
		if st == nil {
			return &NotFoundError{Entity: "Student", ID: studentID}
		}
		task, err := s.repo.GetTask(ctx, sess, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return &NotFoundError{Entity: "Task", ID: taskID}
		}
		assigned, err := s.repo.InsertStudentTask(ctx, sess, StudentTask{
			StudentID:  studentID,
			TaskID:     taskID,
			Status:     StatusAssigned,
			AssignedAt: s.stamp(),
		})
		if err != nil {
			return err
		}
		out = Assignment{
			Message:     fmt.Sprintf("Task '%s' assigned to %s", task.Title, st.Name),
			StudentTask: assigned,
		}
		return nil
	})
	return out, err
}

// StudentTasks lists every assignment made to a student.
func (s *Service) StudentTasks(ctx context.Context, studentID int64) ([]StudentTask, error) {
	var out []StudentTask
	err := s.db.WithSession(ctx, func(sess *store.Session) error {
		st, err := s.repo.GetStudent(ctx, sess, studentID)
		if err != nil {
			return err
		}
		if st == nil {
			return &NotFoundError{Entity: "Student", ID: studentID}
		}
		out, err = s.repo.ListStudentTasks(ctx, sess, studentID)
		return err
	})
	return out, err
}
