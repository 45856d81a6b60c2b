package models

import "github.com/google/uuid"

type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label       string    `json:"label"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pincode     string    `json:"pincode"`
	Landmark    string    `json:"landmark"`
	IsDefault   bool      `json:"is_default"`
}

// ShippingAddress is the address snapshot stored on an order.
type ShippingAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Landmark string `json:"landmark"`
}

// Snapshot copies the address into an order-owned value.
func (a UserAddress) Snapshot() ShippingAddress {
	return ShippingAddress{
		Name:     a.Name,
		Phone:    a.Phone,
		Address:  a.AddressLine,
		City:     a.City,
		State:    a.State,
		Pincode:  a.Pincode,
		Landmark: a.Landmark,
	}
}
