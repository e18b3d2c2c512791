package model

// Permission 用户角色，同时也是版块发帖所需的最低角色
type Permission string

const (
	PermissionSuper  Permission = "SUPER"
	PermissionStaff  Permission = "STAFF"
	PermissionNormal Permission = "NORMAL"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionSuper, PermissionStaff, PermissionNormal:
		return true
	}
	return false
}

func (p Permission) String() string { return string(p) }
