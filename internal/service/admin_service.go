// FILE: internal/service/admin_service.go
package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/mapper"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/pkg/validation"
)

const adminModule = "AdminService"

type IAdminService interface {
	ListUsers(ctx context.Context, page dto.PageQuery) ([]entity.AdminUser, error)
	CreateUser(ctx context.Context, req *dto.CreateAdminUserRequest) error
	UpdateUser(ctx context.Context, id string, req *dto.UpdateAdminUserRequest) error
	DeleteUser(ctx context.Context, user entity.AdminUser, confirmer Confirmer) error
}

type adminService struct {
	client IAPIClient
	mapper *mapper.UserMapper
	logger logger.ILogger
}

func NewAdminService(client IAPIClient, log logger.ILogger) IAdminService {
	return &adminService{client: client, mapper: mapper.NewUserMapper(), logger: log}
}

func (s *adminService) ListUsers(ctx context.Context, page dto.PageQuery) ([]entity.AdminUser, error) {
	var res dto.UserListResponse
	err := s.client.DoJSON(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   constant.PathAdminUsers,
		Query:  pageValues(page),
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin users: %w", err)
	}
	return s.mapper.ToEntities(res.UserItems), nil
}

func (s *adminService) CreateUser(ctx context.Context, req *dto.CreateAdminUserRequest) error {
	body := *req
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if err := validation.Struct(body); err != nil {
		return err
	}

	_, err := s.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   constant.PathSuperAdminUsers,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin %s: %w", body.Username, err)
	}

	s.logger.Info(adminModule, "Admin created", map[string]interface{}{"username": body.Username})
	return nil
}

// UpdateUser leaves the password unchanged when req.Password is empty.
func (s *adminService) UpdateUser(ctx context.Context, id string, req *dto.UpdateAdminUserRequest) error {
	if strings.TrimSpace(id) == "" {
		return validation.New("id", "is required")
	}
	body := *req
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if err := validation.Struct(body); err != nil {
		return err
	}

	_, err := s.client.Do(ctx, &httpclient.Request{
		Method: http.MethodPut,
		Path:   constant.PathSuperAdminUsers + "/" + url.PathEscape(id),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to update admin %s: %w", id, err)
	}

	s.logger.Info(adminModule, "Admin updated", map[string]interface{}{"id": id})
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, user entity.AdminUser, confirmer Confirmer) error {
	body := dto.DeleteAdminUserRequest{Username: user.Username, Email: user.Email}
	if err := validation.Struct(body); err != nil {
		return err
	}
	if err := confirm(ctx, confirmer, fmt.Sprintf("Hapus admin %s (%s)?", user.Username, user.Email)); err != nil {
		return err
	}

	_, err := s.client.Do(ctx, &httpclient.Request{
		Method: http.MethodDelete,
		Path:   constant.PathSuperAdminUsers,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to delete admin %s: %w", user.Username, err)
	}

	s.logger.Info(adminModule, "Admin deleted", map[string]interface{}{"username": user.Username})
	return nil
}

// SearchUsers matches query against username and email, case-insensitive.
func SearchUsers(users []entity.AdminUser, query string) []entity.AdminUser {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]entity.AdminUser(nil), users...)
	}
	out := make([]entity.AdminUser, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), query) || strings.Contains(strings.ToLower(u.Email), query) {
			out = append(out, u)
		}
	}
	return out
}
