package mapper

import (
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

// ToEntity fills in what the list endpoint leaves out: everyone on it is an
// admin unless told otherwise, and active unless told otherwise.
func (m *UserMapper) ToEntity(it dto.UserItem) entity.AdminUser {
	role := entity.UserRole(it.Role)
	if !role.Valid() {
		role = entity.UserRoleAdmin
	}
	active := true
	if it.IsActive != nil {
		active = *it.IsActive
	}
	return entity.AdminUser{
		Id:       it.Id.String(),
		Username: it.Username,
		Email:    it.Email,
		Role:     role,
		Active:   active,
	}
}

func (m *UserMapper) ToEntities(items []dto.UserItem) []entity.AdminUser {
	users := make([]entity.AdminUser, 0, len(items))
	for _, it := range items {
		users = append(users, m.ToEntity(it))
	}
	return users
}

func (m *UserMapper) ToSession(res dto.AuthResponse) entity.Session {
	return entity.Session{Username: res.Username, Role: entity.UserRole(res.Role)}
}
