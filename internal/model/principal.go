package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleFleetAdmin    UserRole = "FLEET_ADMIN"
	UserRoleSafetyOfficer UserRole = "SAFETY_OFFICER"
	UserRoleDispatcher    UserRole = "DISPATCHER"
	UserRoleDriver        UserRole = "DRIVER"
)

type Principal struct {
	UserID   uuid.UUID
	OrgID    uuid.UUID
	Role     UserRole
	DriverID *uuid.UUID
}

func (p Principal) IsFleetAdmin() bool {
	return p.Role == UserRoleFleetAdmin
}

func (p Principal) IsSafetyOfficer() bool {
	return p.Role == UserRoleSafetyOfficer
}

func (p Principal) IsDriver() bool {
	return p.Role == UserRoleDriver
}

// CanManageCompliance reports whether the principal may resolve
// violations.
func (p Principal) CanManageCompliance() bool {
	return p.Role == UserRoleFleetAdmin || p.Role == UserRoleSafetyOfficer
}

// CanActFor reports whether the principal may operate on the given
// driver's logs. Drivers are limited to their own records.
func (p Principal) CanActFor(driverID uuid.UUID) bool {
	if p.IsDriver() {
		return p.DriverID != nil && *p.DriverID == driverID
	}
	return true
}
