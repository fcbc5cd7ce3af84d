// FILE: internal/entity/admin_user_entity.go
package entity

type AdminUser struct {
	Id       string
	Username string
	Email    string
	Role     UserRole
	Active   bool
}
