package auth

const (
	RoleEmployee    = "Employee"
	RoleManager     = "Manager"
	RoleHR          = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	PermPayrollRead    = "payroll.read"
	PermPayrollWrite   = "payroll.write"
	PermPayrollArchive = "payroll.archive"
	PermAuditRead      = "audit.read"
	PermSystemAdmin    = "system.admin"
)

var DefaultPermissions = []string{
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollArchive,
	PermAuditRead,
	PermSystemAdmin,
}

// RolePermissions is the seeded grant table. Role grants live in the
// database afterwards and can be edited per tenant. Employees get no payroll
// grant: every payroll read exposes the whole tenant's salaries.
var RolePermissions = map[string][]string{
	RoleEmployee: {},
	RoleManager: {
		PermPayrollRead,
		PermAuditRead,
	},
	RoleHR: {
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollArchive,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermPayrollRead,
		PermAuditRead,
		PermSystemAdmin,
	},
}

// RevokedPermissions lists grants earlier seeds handed out that Seed removes.
var RevokedPermissions = map[string][]string{
	RoleEmployee: {PermPayrollRead},
}
