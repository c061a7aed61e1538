package school

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"edusync/internal/store"
)

// Repository holds the SQL for every entity. It keeps no state: each method
// runs against the Querier of the caller's session or transaction.
type Repository struct{}

// NewRepository creates a repo.
func NewRepository() *Repository {
	return &Repository{}
}

const studentColumns = `id, name, email, roll_number, class_name, career_interest, created_at`

// StudentConflict returns a *ConflictError when email or roll number is taken.
func (r *Repository) StudentConflict(ctx context.Context, q store.Querier, email, rollNumber string) error {
	var existing struct {
		Email      string `db:"email"`
		RollNumber string `db:"roll_number"`
	}
	err := q.GetContext(ctx, &existing, q.Rebind(`
		SELECT email, roll_number FROM students
		WHERE email = ? OR roll_number = ?
		LIMIT 1
	`), email, rollNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "check student uniqueness")
	}
	if existing.Email == email {
		return &ConflictError{Field: "email", Value: email}
	}
	return &ConflictError{Field: "roll_number", Value: rollNumber}
}

// InsertStudent writes a new student and returns it with its generated id.
func (r *Repository) InsertStudent(ctx context.Context, q store.Querier, in NewStudent, createdAt time.Time) (Student, error) {
	st := Student{
		Name:           in.Name,
		Email:          in.Email,
		RollNumber:     in.RollNumber,
		ClassName:      in.ClassName,
		CareerInterest: in.CareerInterest,
		CreatedAt:      createdAt,
	}
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO students (name, email, roll_number, class_name, career_interest, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), st.Name, st.Email, st.RollNumber, st.ClassName, st.CareerInterest, st.CreatedAt).Scan(&st.ID)
	if err != nil {
		return Student{}, errors.Wrap(err, "insert student")
	}
	return st, nil
}

// GetStudent returns nil without error when no student has the id.
func (r *Repository) GetStudent(ctx context.Context, q store.Querier, id int64) (*Student, error) {
	var st Student
	err := q.GetContext(ctx, &st, q.Rebind(`SELECT `+studentColumns+` FROM students WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get student %d", id)
	}
	return &st, nil
}

func (r *Repository) ListStudents(ctx context.Context, q store.Querier) ([]Student, error) {
	students := []Student{}
	if err := q.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM students ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	return students, nil
}

func (r *Repository) CountStudents(ctx context.Context, q store.Querier) (int, error) {
	var n int
	if err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, errors.Wrap(err, "count students")
	}
	return n, nil
}

// HasStudents is the cheap existence probe used by seeding.
func (r *Repository) HasStudents(ctx context.Context, q store.Querier) (bool, error) {
	var id int64
	err := q.GetContext(ctx, &id, `SELECT id FROM students LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "probe students")
	}
	return true, nil
}

const attendanceColumns = `id, student_id, subject, attendance_type, timestamp, marked_by`

// InsertAttendance appends one attendance row.
func (r *Repository) InsertAttendance(ctx context.Context, q store.Querier, a Attendance) (Attendance, error) {
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO attendance (student_id, subject, attendance_type, timestamp, marked_by)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), a.StudentID, a.Subject, a.AttendanceType, a.Timestamp, a.MarkedBy).Scan(&a.ID)
	if err != nil {
		return Attendance{}, errors.Wrap(err, "insert attendance")
	}
	return a, nil
}

// ListAttendance returns rows in insertion order, for one student when
// studentID is non-nil and for everyone otherwise.
func (r *Repository) ListAttendance(ctx context.Context, q store.Querier, studentID *int64) ([]Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance`
	args := []any{}
	if studentID != nil {
		query += ` WHERE student_id = ?`
		args = append(args, *studentID)
	}
	query += ` ORDER BY id`

	records := []Attendance{}
	if err := q.SelectContext(ctx, &records, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list attendance")
	}
	return records, nil
}

// CountAttendanceSince counts rows stamped at or after since.
func (r *Repository) CountAttendanceSince(ctx context.Context, q store.Querier, since time.Time) (int, error) {
	var n int
	err := q.GetContext(ctx, &n, q.Rebind(`SELECT COUNT(*) FROM attendance WHERE timestamp >= ?`), since.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "count attendance")
	}
	return n, nil
}

const taskColumns = `id, title, description, subject, difficulty_level, estimated_time, task_type, created_at, is_active`

// InsertTask writes a task. Used by seeding; there is no public create path.
func (r *Repository) InsertTask(ctx context.Context, q store.Querier, t Task) (Task, error) {
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO tasks (title, description, subject, difficulty_level, estimated_time, task_type, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), t.Title, t.Description, t.Subject, t.DifficultyLevel, t.EstimatedTime, t.TaskType, t.CreatedAt, t.IsActive).Scan(&t.ID)
	if err != nil {
		return Task{}, errors.Wrap(err, "insert task")
	}
	return t, nil
}

// GetTask returns nil without error when no task has the id. Inactive tasks
// are returned.
func (r *Repository) GetTask(ctx context.Context, q store.Querier, id int64) (*Task, error) {
	var t Task
	err := q.GetContext(ctx, &t, q.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get task %d", id)
	}
	return &t, nil
}

func (r *Repository) ListActiveTasks(ctx context.Context, q store.Querier) ([]Task, error) {
	tasks := []Task{}
	err := q.SelectContext(ctx, &tasks, q.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE is_active = ? ORDER BY id`), true)
	if err != nil {
		return nil, errors.Wrap(err, "list active tasks")
	}
	return tasks, nil
}

func (r *Repository) CountActiveTasks(ctx context.Context, q store.Querier) (int, error) {
	var n int
	if err := q.GetContext(ctx, &n, q.Rebind(`SELECT COUNT(*) FROM tasks WHERE is_active = ?`), true); err != nil {
		return 0, errors.Wrap(err, "count active tasks")
	}
	return n, nil
}

// SetTaskActive flips the soft-deactivation flag. It reports false when no
// task has the id.
func (r *Repository) SetTaskActive(ctx context.Context, q store.Querier, id int64, active bool) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE tasks SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return false, errors.Wrapf(err, "update task %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

const studentTaskColumns = `id, student_id, task_id, status, assigned_at, completed_at, feedback`

// InsertStudentTask writes an assignment row. Duplicate pairs are allowed.
func (r *Repository) InsertStudentTask(ctx context.Context, q store.Querier, st StudentTask) (StudentTask, error) {
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO student_tasks (student_id, task_id, status, assigned_at, completed_at, feedback)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), st.StudentID, st.TaskID, st.Status, st.AssignedAt, st.CompletedAt, st.Feedback).Scan(&st.ID)
	if err != nil {
		return StudentTask{}, errors.Wrap(err, "insert student task")
	}
	return st, nil
}

// ListStudentTasks returns a student's assignments in insertion order.
func (r *Repository) ListStudentTasks(ctx context.Context, q store.Querier, studentID int64) ([]StudentTask, error) {
	out := []StudentTask{}
	err := q.SelectContext(ctx, &out, q.Rebind(`SELECT `+studentTaskColumns+` FROM student_tasks WHERE student_id = ? ORDER BY id`), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "list student tasks")
	}
	return out, nil
}
