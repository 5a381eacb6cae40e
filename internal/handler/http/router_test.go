package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	notificationService "github.com/cmlabs-hris/hris-payroll-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"
	handlerCompanyID  = "01890000-0000-7000-8000-0000000000c1"
)

type apiFixture struct {
	server     *httptest.Server
	jwtService jwt.Service
	employees  employee.EmployeeRepository
	slips      payroll.PayrollRepository
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	transactor := sqlite.NewTransactor(db)
	employees := sqlite.NewEmployeeRepository(db)
	records := sqlite.NewAttendanceRepository(db)
	slips := sqlite.NewPayrollRepository(db)

	notifSvc := notificationService.NewNotificationService(sqlite.NewNotificationRepository(db), notificationService.Config{WorkerCount: 1})
	t.Cleanup(notifSvc.Stop)

	ist := time.FixedZone("IST", 5*3600+30*60)
	attSvc := attendanceService.NewAttendanceService(transactor, records, employees,
		attendanceService.NewNormalizer(attendance.DefaultOfficeHours()), ist)
	paySvc := payrollService.NewPayrollService(transactor, slips, employees, records,
		payrollService.NewCalculator(payroll.DefaultRules()), notifSvc)

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	router := NewRouter(RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}}, jwtService, Handlers{
		Attendance:   NewAttendanceHandler(attSvc),
		Payroll:      NewPayrollHandler(paySvc),
		Notification: NewNotificationHandler(notifSvc),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return apiFixture{server: server, jwtService: jwtService, employees: employees, slips: slips}
}

func (f apiFixture) token(t *testing.T, role user.Role, employeeID string) string {
	t.Helper()
	token, _, err := f.jwtService.GenerateAccessToken(jwt.Claims{
		UserID:     "01890000-0000-7000-8000-0000000000a1",
		EmployeeID: employeeID,
		CompanyID:  handlerCompanyID,
		Role:       role,
	})
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (f apiFixture) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (f apiFixture) hire(t *testing.T) employee.Employee {
	t.Helper()
	userID := uuid.Must(uuid.NewV7()).String()
	emp, err := f.employees.Create(context.Background(), employee.Employee{
		ID:               uuid.Must(uuid.NewV7()).String(),
		UserID:           &userID,
		CompanyID:        handlerCompanyID,
		EmployeeCode:     "E1",
		FullName:         "Asha Rao",
		HireDate:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
	})
	require.NoError(t, err)
	return emp
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.do(t, http.MethodGet, "/api/v1/payroll/slips", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	forged := jwt.NewJWTService("another-secret", "1h")
	token, _, err := forged.GenerateAccessToken(jwt.Claims{UserID: "u", CompanyID: handlerCompanyID, Role: user.RoleOwner})
	require.NoError(t, err)
	status, _ = f.do(t, http.MethodGet, "/api/v1/payroll/slips", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_ManagerRoutesRejectEmployees(t *testing.T) {
	f := newAPIFixture(t)
	emp := f.hire(t)

	status, env := f.do(t, http.MethodGet, "/api/v1/payroll/slips", f.token(t, user.RoleEmployee, emp.ID), nil)
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = f.do(t, http.MethodGet, "/api/v1/payroll/me/slips", f.token(t, user.RoleManager, ""), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRouter_PunchAndPayrollFlow(t *testing.T) {
	f := newAPIFixture(t)
	emp := f.hire(t)
	employeeToken := f.token(t, user.RoleEmployee, emp.ID)
	managerToken := f.token(t, user.RoleManager, "")

	status, env := f.do(t, http.MethodPost, "/api/v1/attendance/punch", employeeToken, map[string]string{
		"type": "CHECK_IN",
		"time": "2024-04-01T09:00:00+05:30",
	})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = f.do(t, http.MethodPost, "/api/v1/attendance/punch", employeeToken, map[string]string{"type": "NAP"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "type")

	status, env = f.do(t, http.MethodGet, "/api/v1/attendance/employees/"+emp.ID+"/daily?date=2024-04-01", managerToken, nil)
	require.Equal(t, http.StatusOK, status)
	var daily attendance.AttendanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &daily))
	require.NotNil(t, daily.CheckIn)
	assert.Equal(t, "Asha Rao", daily.EmployeeName)

	status, _ = f.do(t, http.MethodPut, "/api/v1/payroll/employees/"+emp.ID+"/salary-structure", managerToken, map[string]any{
		"basic_salary":  "26000",
		"overtime_rate": "1",
	})
	require.Equal(t, http.StatusOK, status)

	for _, p := range []map[string]string{
		{"date": "2024-04-02", "type": "CHECK_IN", "time": "09:00"},
		{"date": "2024-04-02", "type": "CHECK_OUT", "time": "18:00"},
	} {
		status, env = f.do(t, http.MethodPut, "/api/v1/attendance/employees/"+emp.ID+"/punches", managerToken, p)
		require.Equal(t, http.StatusOK, status, env.Error)
	}

	status, env = f.do(t, http.MethodPost, "/api/v1/payroll/slips", managerToken, map[string]any{
		"employee_id":  emp.ID,
		"period_year":  2024,
		"period_month": 4,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var slip payroll.SlipResponse
	require.NoError(t, json.Unmarshal(env.Data, &slip))
	assert.Equal(t, "DRAFT", slip.Status)
	assert.Equal(t, 1, slip.PresentDays)
	assert.True(t, decimal.NewFromInt(1000).Equal(slip.NetSalary), slip.NetSalary.String())

	status, env = f.do(t, http.MethodGet, "/api/v1/payroll/me/slips", employeeToken, nil)
	require.Equal(t, http.StatusOK, status)
	var mine payroll.ListSlipResponse
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Empty(t, mine.Slips)

	status, _ = f.do(t, http.MethodPost, "/api/v1/payroll/slips/"+slip.ID+"/finalize", managerToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = f.do(t, http.MethodDelete, "/api/v1/payroll/slips/"+slip.ID, managerToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/slips/2024/4", managerToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &slip))
	assert.Equal(t, "FINALIZED", slip.Status)

	status, env = f.do(t, http.MethodGet, "/api/v1/payroll/me/slips", employeeToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Len(t, mine.Slips, 1)
}

func TestRouter_NotFoundStaysInEnvelope(t *testing.T) {
	f := newAPIFixture(t)
	emp := f.hire(t)
	managerToken := f.token(t, user.RoleManager, "")

	status, env := f.do(t, http.MethodGet, "/api/v1/payroll/slips/"+uuid.Must(uuid.NewV7()).String(), managerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = f.do(t, http.MethodPost, "/api/v1/payroll/slips/not-a-uuid/finalize", managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)

	status, _ = f.do(t, http.MethodGet, "/api/v1/payroll/employees/"+emp.ID+"/slips/2024/four", managerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = f.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
