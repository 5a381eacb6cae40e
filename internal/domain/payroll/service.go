package payroll

import "context"

type PayrollService interface {
	// PreviewSlip runs the calculation without persisting
	PreviewSlip(ctx context.Context, req GenerateSlipRequest) (SlipResponse, error)
	// GenerateSlip persists a DRAFT slip
	GenerateSlip(ctx context.Context, req GenerateSlipRequest) (SlipResponse, error)
	// GenerateBulk generates drafts for many employees, collecting failures
	GenerateBulk(ctx context.Context, req BulkGenerateRequest) (BulkGenerateResponse, error)

	GetSlip(ctx context.Context, id string) (SlipResponse, error)
	// GetSlipByEmployeePeriod prefers the FINALIZED slip, else the latest DRAFT
	GetSlipByEmployeePeriod(ctx context.Context, employeeID string, year, month int) (SlipResponse, error)
	ListSlips(ctx context.Context, filter SlipFilter) (ListSlipResponse, error)
	// ListMySlips lists FINALIZED and PAID slips of the authenticated employee
	ListMySlips(ctx context.Context, filter SlipFilter) (ListSlipResponse, error)

	FinalizeSlip(ctx context.Context, id string) (SlipResponse, error)
	MarkPaid(ctx context.Context, id string) (SlipResponse, error)
	DeleteSlip(ctx context.Context, id string) error

	GetSalaryStructure(ctx context.Context, employeeID string) (SalaryStructureResponse, error)
	UpdateSalaryStructure(ctx context.Context, req SalaryStructureRequest) (SalaryStructureResponse, error)
}
