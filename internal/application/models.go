package application

import (
	"fmt"
	"strings"
	"time"
)

// Role is a staff permission level. Higher roles include the lower ones.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleResident Role = "resident"
)

var roleRank = map[Role]int{
	RoleAdmin:    4,
	RoleManager:  3,
	RoleStaff:    2,
	RoleResident: 1,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// ParseRole parses a case-insensitive role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Principal represents the authenticated staff member invoking a service method.
type Principal struct {
	StaffName string
	Role      Role
}

// HasRole reports whether the principal holds at least the given role.
func (p Principal) HasRole(min Role) bool {
	return roleRank[p.Role] >= roleRank[min] && roleRank[min] > 0
}

// SystemPrincipal is used for start-up work such as seeding.
var SystemPrincipal = Principal{StaffName: "system", Role: RoleAdmin}

// Staff is an operator account without its credential material.
type Staff struct {
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateStaffParams wraps the data required to register a staff account.
type CreateStaffParams struct {
	Principal Principal
	Name      string
	Role      Role
	PIN       string
}
