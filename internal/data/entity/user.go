package entity

type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RolePhotographer UserRole = "photographer"
)

type User struct {
	Base
	Username    string   `json:"username" validate:"required,max=64"`
	DisplayName string   `json:"display_name" validate:"max=200"`
	Role        UserRole `json:"role" validate:"required,oneof=admin photographer"`
}
