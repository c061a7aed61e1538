package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"edusync/internal/metrics"
	"edusync/internal/school"
)

// Version is reported by the banner endpoint.
const Version = "1.0.0"

type Handler struct {
	svc     *school.Service
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewHandler(svc *school.Service, m *metrics.Metrics, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, metrics: m, log: log}
}

// ---------- Banner ----------

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to EduSync API",
		"version": Version,
	})
}

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.svc.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req school.NewStudent
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.svc.CreateStudent(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.StudentsCreated.Inc()
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.svc.GetStudent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ---------- Attendance ----------

// MarkAttendance records the student as present. ?subject= defaults to General.
func (h *Handler) MarkAttendance(c *gin.Context) {
	id, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	rec, err := h.svc.MarkAttendance(c.Request.Context(), id, c.DefaultQuery("subject", school.DefaultSubject))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.AttendanceMarked.Inc()
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) StudentAttendance(c *gin.Context) {
	id, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	records, err := h.svc.StudentAttendance(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) ListAttendance(c *gin.Context) {
	records, err := h.svc.AllAttendance(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ---------- Tasks ----------

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.svc.ActiveTasks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.svc.GetTask(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) RecommendTasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.svc.RecommendTasks(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.Recommendations.Inc()
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) AssignTask(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}
	out, err := h.svc.AssignTask(c.Request.Context(), studentID, taskID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.TasksAssigned.Inc()
	c.JSON(http.StatusOK, out)
}

func (h *Handler) StudentTasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.StudentTasks(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ---------- Dashboard ----------

func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.svc.DashboardStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
