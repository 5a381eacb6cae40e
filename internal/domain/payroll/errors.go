package payroll

import "errors"

var (
	ErrSlipNotFound            = errors.New("salary slip not found")
	ErrInvalidStatusTransition = errors.New("invalid salary slip status transition")
	ErrOnlyDraftDeletable      = errors.New("only draft salary slips can be deleted")
	ErrFinalizedSlipExists     = errors.New("a finalized salary slip already exists for this period")
	ErrSalaryStructureNotFound = errors.New("salary structure not found")
)
