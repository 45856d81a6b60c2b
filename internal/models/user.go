package models

// Roles a user can hold.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// User represents an authenticated customer, seller or administrator.
type User struct {
	BaseModel
	Name         string        `json:"name"`
	Email        string        `gorm:"uniqueIndex" json:"email"`
	Phone        string        `json:"phone"`
	PasswordHash string        `json:"-"`
	Role         string        `gorm:"index" json:"role"`
	IsActive     bool          `json:"is_active"`
	Addresses    []UserAddress `json:"addresses,omitempty"`
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}
