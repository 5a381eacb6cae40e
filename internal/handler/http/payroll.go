package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Slips
	PreviewSlip(w http.ResponseWriter, r *http.Request)
	GenerateSlip(w http.ResponseWriter, r *http.Request)
	GenerateBulk(w http.ResponseWriter, r *http.Request)
	GetSlip(w http.ResponseWriter, r *http.Request)
	GetSlipByEmployeePeriod(w http.ResponseWriter, r *http.Request)
	ListSlips(w http.ResponseWriter, r *http.Request)
	ListMySlips(w http.ResponseWriter, r *http.Request)
	FinalizeSlip(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	DeleteSlip(w http.ResponseWriter, r *http.Request)

	// Salary structure
	GetSalaryStructure(w http.ResponseWriter, r *http.Request)
	UpdateSalaryStructure(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== GENERATION ==========

func (h *payrollHandlerImpl) PreviewSlip(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateSlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.PreviewSlip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GenerateSlip(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateSlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.GenerateSlip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary slip generated", result)
}

func (h *payrollHandlerImpl) GenerateBulk(w http.ResponseWriter, r *http.Request) {
	var req payroll.BulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.GenerateBulk(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary slips generated", result)
}

// ========== READ ==========

func (h *payrollHandlerImpl) GetSlip(w http.ResponseWriter, r *http.Request) {
	id, ok := slipID(w, r)
	if !ok {
		return
	}
	result, err := h.payrollService.GetSlip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetSlipByEmployeePeriod(w http.ResponseWriter, r *http.Request) {
	year, errYear := strconv.Atoi(chi.URLParam(r, "year"))
	month, errMonth := strconv.Atoi(chi.URLParam(r, "month"))
	if errYear != nil || errMonth != nil {
		response.HandleError(w, validator.Single("period", "year and month must be numbers"))
		return
	}

	result, err := h.payrollService.GetSlipByEmployeePeriod(r.Context(), chi.URLParam(r, "employeeId"), year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListSlips(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListSlips(r.Context(), slipFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListMySlips(w http.ResponseWriter, r *http.Request) {
	filter := slipFilter(r)
	filter.EmployeeID = nil

	result, err := h.payrollService.ListMySlips(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func slipFilter(r *http.Request) payroll.SlipFilter {
	filter := payroll.SlipFilter{
		EmployeeID: queryString(r, "employee_id"),
		Status:     queryString(r, "status"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
	}
	if year := queryInt(r, "period_year", 0); year != 0 {
		filter.PeriodYear = &year
	}
	if month := queryInt(r, "period_month", 0); month != 0 {
		filter.PeriodMonth = &month
	}
	return filter
}

// ========== LIFECYCLE ==========

func (h *payrollHandlerImpl) FinalizeSlip(w http.ResponseWriter, r *http.Request) {
	id, ok := slipID(w, r)
	if !ok {
		return
	}
	result, err := h.payrollService.FinalizeSlip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary slip finalized", result)
}

func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := slipID(w, r)
	if !ok {
		return
	}
	result, err := h.payrollService.MarkPaid(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary slip marked as paid", result)
}

func (h *payrollHandlerImpl) DeleteSlip(w http.ResponseWriter, r *http.Request) {
	id, ok := slipID(w, r)
	if !ok {
		return
	}
	if err := h.payrollService.DeleteSlip(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary slip deleted", nil)
}

// ========== SALARY STRUCTURE ==========

func (h *payrollHandlerImpl) GetSalaryStructure(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetSalaryStructure(r.Context(), chi.URLParam(r, "employeeId"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateSalaryStructure(w http.ResponseWriter, r *http.Request) {
	var req payroll.SalaryStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeId")

	result, err := h.payrollService.UpdateSalaryStructure(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary structure updated", result)
}

func slipID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid slip ID", nil)
		return "", false
	}
	return id, true
}
