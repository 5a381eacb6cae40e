package payroll

import "context"

// PayrollRepository defines data access methods for salary slips and structures.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Salary structure (payroll columns of the employee record)
	GetSalaryStructure(ctx context.Context, employeeID string, companyID string) (SalaryStructure, error)
	UpdateSalaryStructure(ctx context.Context, structure SalaryStructure, companyID string) error

	// Slips
	CreateSlip(ctx context.Context, slip PayrollSlip) (PayrollSlip, error)
	GetSlipByID(ctx context.Context, id string, companyID string) (PayrollSlip, error)
	// GetSlipForUpdate locks the row when called inside a transaction
	GetSlipForUpdate(ctx context.Context, id string, companyID string) (PayrollSlip, error)
	ListSlips(ctx context.Context, filter SlipFilter, companyID string) ([]PayrollSlip, int64, error)
	// ListSlipsByEmployeePeriod returns non-deleted slips, newest first
	ListSlipsByEmployeePeriod(ctx context.Context, employeeID string, year, month int, companyID string) ([]PayrollSlip, error)
	// CountLockedSlips counts FINALIZED or PAID slips of the employee-month other than excludeID
	CountLockedSlips(ctx context.Context, employeeID string, year, month int, excludeID string, companyID string) (int, error)
	UpdateSlipStatus(ctx context.Context, slip PayrollSlip) error
	SoftDeleteSlip(ctx context.Context, id string, companyID string) error
}
