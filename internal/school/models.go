package school

import "time"

// AttendanceType is how a student was marked.
type AttendanceType string

const (
	Present AttendanceType = "present"
	Absent  AttendanceType = "absent"
	Late    AttendanceType = "late"
)

// MarkedBy records who created an attendance row.
type MarkedBy string

const (
	MarkedBySystem  MarkedBy = "system"
	MarkedByTeacher MarkedBy = "teacher"
	MarkedByStudent MarkedBy = "student"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

type TaskType string

const (
	TaskAssignment TaskType = "assignment"
	TaskProject    TaskType = "project"
	TaskReading    TaskType = "reading"
	TaskPractice   TaskType = "practice"
)

// AssignmentStatus tracks a StudentTask through its workflow.
type AssignmentStatus string

const (
	StatusAssigned   AssignmentStatus = "assigned"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusCompleted  AssignmentStatus = "completed"
	StatusSkipped    AssignmentStatus = "skipped"
)

// DefaultSubject is used when attendance is marked without a subject.
const DefaultSubject = "General"

// Student is a registered student. Students are never updated or deleted.
type Student struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	RollNumber     string    `json:"roll_number" db:"roll_number"`
	ClassName      string    `json:"class_name" db:"class_name"`
	CareerInterest *string   `json:"career_interest" db:"career_interest"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewStudent is the input for creating a student.
type NewStudent struct {
	Name           string  `json:"name" binding:"required"`
	Email          string  `json:"email" binding:"required"`
	RollNumber     string  `json:"roll_number" binding:"required"`
	ClassName      string  `json:"class_name" binding:"required"`
	CareerInterest *string `json:"career_interest"`
}

// Attendance is one append-only attendance mark.
type Attendance struct {
	ID             int64          `json:"id" db:"id"`
	StudentID      int64          `json:"student_id" db:"student_id"`
	Subject        string         `json:"subject" db:"subject"`
	AttendanceType AttendanceType `json:"attendance_type" db:"attendance_type"`
	Timestamp      time.Time      `json:"timestamp" db:"timestamp"`
	MarkedBy       MarkedBy       `json:"marked_by" db:"marked_by"`
}

// Task is a unit of work that can be recommended to and assigned to students.
// Inactive tasks are hidden from listings but still addressable by id.
type Task struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     *string    `json:"description" db:"description"`
	Subject         *string    `json:"subject" db:"subject"`
	DifficultyLevel Difficulty `json:"difficulty_level" db:"difficulty_level"`
	EstimatedTime   int        `json:"estimated_time" db:"estimated_time"`
	TaskType        TaskType   `json:"task_type" db:"task_type"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	IsActive        bool       `json:"is_active" db:"is_active"`
}

// StudentTask assigns a task to a student. The same pair may be assigned
// any number of times.
type StudentTask struct {
	ID          int64            `json:"id" db:"id"`
	StudentID   int64            `json:"student_id" db:"student_id"`
	TaskID      int64            `json:"task_id" db:"task_id"`
	Status      AssignmentStatus `json:"status" db:"status"`
	AssignedAt  time.Time        `json:"assigned_at" db:"assigned_at"`
	CompletedAt *time.Time       `json:"completed_at" db:"completed_at"`
	Feedback    *string          `json:"feedback" db:"feedback"`
}

// Recommendation is the result of recommending tasks to a student.
type Recommendation struct {
	StudentID        int64   `json:"student_id"`
	StudentName      string  `json:"student_name"`
	CareerInterest   *string `json:"career_interest"`
	RecommendedTasks []Task  `json:"recommended_tasks"`
}

// Assignment confirms a task assignment.
type Assignment struct {
	Message     string      `json:"message"`
	StudentTask StudentTask `json:"student_task"`
}

// DashboardStats summarises the current state for the dashboard.
type DashboardStats struct {
	TotalStudents        int     `json:"total_students"`
	AttendanceToday      int     `json:"attendance_today"`
	ActiveTasks          int     `json:"active_tasks"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}
