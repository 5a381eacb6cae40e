package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Runs payroll, fixes attendance
	RoleEmployee Role = "employee" // Regular employee
	RoleSystem   Role = "system"   // Scheduled jobs and the CLI
)

// IsManager checks if the role may manage other employees' payroll
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner || r == RoleSystem
}
