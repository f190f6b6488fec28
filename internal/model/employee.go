package model

import "time"

// EmployeeRole is the organizational role an employee holds.
type EmployeeRole string

const (
	RoleEmployee EmployeeRole = "employee"
	RoleManager  EmployeeRole = "manager"
	RoleDBA      EmployeeRole = "dba"
)

// Employee is a person in the organizational directory. SupervisorID is nil
// for the root of the hierarchy.
type Employee struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	SupervisorID *int         `json:"supervisor_id"`
	Role         EmployeeRole `json:"role"`
}

// User is an authenticated account. EmployeeID links the account to its
// directory entry; it is nil for service accounts.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	EmployeeID   *int      `json:"employee_id"`
	CreatedAt    time.Time `json:"created_at"`
}
