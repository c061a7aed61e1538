package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edusync/internal/config"
	"edusync/internal/metrics"
	"edusync/internal/school"
	"edusync/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router  *gin.Engine
	svc     *school.Service
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, cfg config.App) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	svc := school.NewService(db, school.NewRepository(), school.NewSeededSelector(7))
	m := metrics.New()
	r := NewRouter(Deps{
		Config:  cfg,
		Service: svc,
		DB:      db,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &testServer{router: r, svc: svc, metrics: m}
}

func (s *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func studentBody(suffix string) map[string]any {
	return map[string]any{
		"name":        "Student " + suffix,
		"email":       suffix + "@example.com",
		"roll_number": "R-" + suffix,
		"class_name":  "Computer Science A",
	}
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, config.App{})

	w := s.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["message"])
}

func TestStudents(t *testing.T) {
	s := newTestServer(t, config.App{})

	w := s.do(http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	in := studentBody("a")
	in["career_interest"] = "Data Scientist"
	w = s.do(http.MethodPost, "/students", in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[school.Student](t, w)
	assert.NotZero(t, created.ID)
	require.NotNil(t, created.CareerInterest)
	assert.Equal(t, "Data Scientist", *created.CareerInterest)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.StudentsCreated))

	w = s.do(http.MethodGet, "/students/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[school.Student](t, w)
	assert.Equal(t, created.Email, got.Email)

	w = s.do(http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]school.Student](t, w), 1)

	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{name: "duplicate email", body: map[string]any{"name": "X", "email": "a@example.com", "roll_number": "R-new", "class_name": "C"}, wantCode: http.StatusConflict, wantErr: "student with email"},
		{name: "duplicate roll number", body: map[string]any{"name": "X", "email": "new@example.com", "roll_number": "R-a", "class_name": "C"}, wantCode: http.StatusConflict, wantErr: "student with roll_number"},
		{name: "missing field", body: map[string]any{"name": "X", "email": "x@example.com"}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/students", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			body := decode[map[string]string](t, w)
			assert.Contains(t, body["error"], tt.wantErr)
		})
	}
}

func TestStudents_lookupErrors(t *testing.T) {
	s := newTestServer(t, config.App{})

	tests := []struct {
		name     string
		method   string
		target   string
		wantCode int
		wantErr  string
	}{
		{name: "unknown student", method: http.MethodGet, target: "/students/99", wantCode: http.StatusNotFound, wantErr: "Student not found"},
		{name: "non-integer id", method: http.MethodGet, target: "/students/abc", wantCode: http.StatusBadRequest, wantErr: "id must be an integer"},
		{name: "mark unknown student", method: http.MethodPost, target: "/attendance/99", wantCode: http.StatusNotFound, wantErr: "Student not found"},
		{name: "mark non-integer", method: http.MethodPost, target: "/attendance/x", wantCode: http.StatusBadRequest, wantErr: "student_id must be an integer"},
		{name: "recommend unknown student", method: http.MethodGet, target: "/students/99/recommended-tasks", wantCode: http.StatusNotFound, wantErr: "Student not found"},
		{name: "tasks of unknown student", method: http.MethodGet, target: "/students/99/tasks", wantCode: http.StatusNotFound, wantErr: "Student not found"},
		{name: "assign to unknown student", method: http.MethodPost, target: "/students/99/assign-task/99", wantCode: http.StatusNotFound, wantErr: "Student not found"},
		{name: "assign non-integer task", method: http.MethodPost, target: "/students/1/assign-task/x", wantCode: http.StatusBadRequest, wantErr: "task_id must be an integer"},
		{name: "unknown task", method: http.MethodGet, target: "/tasks/99", wantCode: http.StatusNotFound, wantErr: "Task not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.target, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestAttendance(t *testing.T) {
	s := newTestServer(t, config.App{})

	w := s.do(http.MethodGet, "/attendance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	a := decode[school.Student](t, s.do(http.MethodPost, "/students", studentBody("a")))
	b := decode[school.Student](t, s.do(http.MethodPost, "/students", studentBody("b")))

	w = s.do(http.MethodPost, "/attendance/"+itoa(a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[school.Attendance](t, w)
	assert.Equal(t, school.DefaultSubject, rec.Subject)
	assert.Equal(t, school.Present, rec.AttendanceType)
	assert.Equal(t, school.MarkedBySystem, rec.MarkedBy)

	w = s.do(http.MethodPost, "/attendance/"+itoa(b.ID)+"?subject=Mathematics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mathematics", decode[school.Attendance](t, w).Subject)

	w = s.do(http.MethodGet, "/attendance/"+itoa(a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]school.Attendance](t, w), 1)

	// unknown students have no records rather than a 404
	w = s.do(http.MethodGet, "/attendance/999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodGet, "/attendance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]school.Attendance](t, w)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].StudentID)
	assert.Equal(t, b.ID, all[1].StudentID)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.AttendanceMarked))
}

func TestTasks_recommendAndAssign(t *testing.T) {
	s := newTestServer(t, config.App{})
	ctx := context.Background()

	w := s.do(http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	seeded, err := s.svc.EnsureSeeded(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	w = s.do(http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[[]school.Task](t, w)
	require.Len(t, tasks, 3)

	require.NoError(t, s.svc.DeactivateTask(ctx, tasks[0].ID))
	w = s.do(http.MethodGet, "/tasks", nil)
	assert.Len(t, decode[[]school.Task](t, w), 2)

	w = s.do(http.MethodGet, "/tasks/"+itoa(tasks[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[school.Task](t, w).IsActive)

	students := decode[[]school.Student](t, s.do(http.MethodGet, "/students", nil))
	require.NotEmpty(t, students)
	st := students[0]

	w = s.do(http.MethodGet, "/students/"+itoa(st.ID)+"/recommended-tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[school.Recommendation](t, w)
	assert.Equal(t, st.ID, rec.StudentID)
	assert.Equal(t, st.Name, rec.StudentName)
	assert.Len(t, rec.RecommendedTasks, 2)
	for _, task := range rec.RecommendedTasks {
		assert.True(t, task.IsActive)
	}

	// inactive tasks can still be assigned
	w = s.do(http.MethodPost, "/students/"+itoa(st.ID)+"/assign-task/"+itoa(tasks[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[school.Assignment](t, w)
	assert.Equal(t, "Task '"+tasks[0].Title+"' assigned to "+st.Name, out.Message)
	assert.Equal(t, school.StatusAssigned, out.StudentTask.Status)
	assert.Nil(t, out.StudentTask.CompletedAt)

	w = s.do(http.MethodPost, "/students/"+itoa(st.ID)+"/assign-task/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decode[map[string]string](t, w)["error"])

	w = s.do(http.MethodGet, "/students/"+itoa(st.ID)+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assigned := decode[[]school.StudentTask](t, w)
	require.Len(t, assigned, 1)
	assert.Equal(t, tasks[0].ID, assigned[0].TaskID)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.TasksAssigned))
}

func TestDashboardStats(t *testing.T) {
	s := newTestServer(t, config.App{})

	w := s.do(http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_students":0,"attendance_today":0,"active_tasks":0,"attendance_percentage":0}`, w.Body.String())

	a := decode[school.Student](t, s.do(http.MethodPost, "/students", studentBody("a")))
	s.do(http.MethodPost, "/students", studentBody("b"))
	s.do(http.MethodPost, "/attendance/"+itoa(a.ID), nil)

	w = s.do(http.MethodGet, "/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[school.DashboardStats](t, w)
	assert.Equal(t, school.DashboardStats{TotalStudents: 2, AttendanceToday: 1, ActiveTasks: 0, AttendancePercentage: 50}, stats)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, config.App{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/students", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t, config.App{})

	w := s.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","db":"ok","redis":"disabled"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	s.do(http.MethodGet, "/students", nil)
	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `route="/students"`), w.Body.String())
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, config.App{RateLimitPerMin: 2})

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/students", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/students", nil).Code)
	w := s.do(http.MethodGet, "/students", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health checks are never limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", nil).Code)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
