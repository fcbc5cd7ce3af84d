// FILE: internal/dto/admin_dto.go
package dto

// --- Documents ---

type DocumentItem struct {
	DocumentId     FlexibleId `json:"document_id"`
	DocumentName   string     `json:"document_name"`
	TimeUpload     string     `json:"time_upload"`
	User           string     `json:"user"`
	DocumentStatus string     `json:"document_status"`
}

type DocumentListResponse struct {
	DocumentItems []DocumentItem `json:"document_items"`
}

type DeleteDocumentRequest struct {
	DocumentId FlexibleId `json:"document_id"`
}

// --- Admin users ---

type UserItem struct {
	Id       FlexibleId `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     string     `json:"role,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

type UserListResponse struct {
	UserItems []UserItem `json:"user_items"`
}

type CreateAdminUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateAdminUserRequest leaves Username and Password untouched when empty.
type UpdateAdminUserRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type DeleteAdminUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// PageQuery is the offset/limit pair both admin lists accept.
type PageQuery struct {
	Offset     int
	Limit      int
	Descending bool
}
