package employee

import "context"

// EmployeeRepository reads the employee records payroll depends on.
type EmployeeRepository interface {
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	// GetByID returns ErrEmployeeNotFound for unknown or deleted employees
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	// ListCompanyIDs returns every company with at least one active employee
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
