package fakeapi

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"kasbi-client/internal/dto"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// uploadPendingLists is how long an uploaded document stays pending.
const uploadPendingLists = 1

func (s *Server) listDocuments(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]*document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].id < docs[j].id })

	items := make([]dto.DocumentItem, 0, len(docs))
	for _, d := range page(docs, c) {
		if d.status == "pending" && d.pendingLists >= 0 {
			if d.pendingLists == 0 {
				d.status = "done"
			} else {
				d.pendingLists--
			}
		}
		items = append(items, dto.DocumentItem{
			DocumentId:     dto.FlexibleId(strconv.Itoa(d.id)),
			DocumentName:   d.name,
			TimeUpload:     d.uploadedAt.Format(timeLayout),
			User:           d.uploadedBy,
			DocumentStatus: d.status,
		})
	}
	return c.JSON(dto.DocumentListResponse{DocumentItems: items})
}

func (s *Server) insertDocument(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "file is required")
	}
	f, err := header.Open()
	if err != nil {
		return detail(c, fiber.StatusBadRequest, err.Error())
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		return detail(c, fiber.StatusBadRequest, err.Error())
	}

	username, _ := c.Locals("username").(string)
	id := s.AddDocument(header.Filename, username, "pending", uploadPendingLists)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    fiber.StatusCreated,
		"message": "Document uploaded",
		"data":    fiber.Map{"document_id": id},
	})
}

func (s *Server) deleteDocument(c *fiber.Ctx) error {
	var req dto.DeleteDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	id, ok := atoi(req.DocumentId.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[id]; !ok || !exists {
		return detail(c, fiber.StatusNotFound, "Dokumen tidak ditemukan")
	}
	delete(s.documents, id)
	return envelope(c, nil)
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admins := make([]*user, 0)
	for _, u := range s.sortedUsers() {
		if u.role == "admin" || u.role == "superadmin" {
			admins = append(admins, u)
		}
	}

	items := make([]dto.UserItem, 0, len(admins))
	for _, u := range page(admins, c) {
		active := u.active
		items = append(items, dto.UserItem{
			Id:       dto.FlexibleId(strconv.Itoa(u.id)),
			Username: u.username,
			Email:    u.email,
			Role:     u.role,
			IsActive: &active,
		})
	}
	return c.JSON(dto.UserListResponse{UserItems: items})
}

func (s *Server) createUser(c *fiber.Ctx) error {
	var req dto.CreateAdminUserRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.username == req.Username || strings.EqualFold(u.email, req.Email) {
			s.mu.Unlock()
			return detail(c, fiber.StatusBadRequest, "Username atau email sudah terdaftar")
		}
	}
	s.mu.Unlock()

	id := s.AddUser(req.Username, req.Email, req.Password, "admin")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "code": fiber.StatusCreated, "data": fiber.Map{"id": id}})
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid id")
	}
	var req dto.UpdateAdminUserRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var target *user
	for _, u := range s.users {
		if u.id == id {
			target = u
		}
	}
	if target == nil {
		return detail(c, fiber.StatusNotFound, "User tidak ditemukan")
	}

	if req.Username != "" && req.Username != target.username {
		if _, taken := s.users[req.Username]; taken {
			return detail(c, fiber.StatusBadRequest, "Username sudah digunakan")
		}
		delete(s.users, target.username)
		target.username = req.Username
		s.users[target.username] = target
	}
	if req.Email != "" {
		target.email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
		if err != nil {
			return detail(c, fiber.StatusInternalServerError, err.Error())
		}
		target.passwordHash = hash
	}
	return envelope(c, fiber.Map{"id": target.id, "updated_at": time.Now().UTC().Format(timeLayout)})
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	var req dto.DeleteAdminUserRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[req.Username]
	if !ok || !strings.EqualFold(u.email, req.Email) {
		return detail(c, fiber.StatusNotFound, "User tidak ditemukan")
	}
	delete(s.users, req.Username)
	return envelope(c, nil)
}
