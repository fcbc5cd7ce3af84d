package fakeapi

import (
	"slices"
	"strings"
	"time"

	"kasbi-client/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// issue must be called with s.mu held.
func (s *Server) issue(u *user) (dto.AuthResponse, error) {
	now := time.Now()
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.username,
		"role": u.role,
		"gen":  s.generation,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	refresh := uuid.NewString()
	s.refreshTokens[refresh] = u.username

	return dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         u.role,
		Username:     u.username,
	}, nil
}

func (s *Server) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var found *user
	for _, u := range s.users {
		if (req.Username != "" && u.username == req.Username) || (req.Email != "" && strings.EqualFold(u.email, req.Email)) {
			found = u
			break
		}
	}
	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(req.Password)) != nil {
		return detail(c, fiber.StatusUnauthorized, "Email atau password salah")
	}
	if !found.active {
		return detail(c, fiber.StatusForbidden, "Akun tidak aktif")
	}

	res, err := s.issue(found)
	if err != nil {
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}
	return envelope(c, res)
}

func (s *Server) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "username, email and password are required")
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.username == req.Username || strings.EqualFold(u.email, req.Email) {
			s.mu.Unlock()
			return detail(c, fiber.StatusBadRequest, "Username atau email sudah terdaftar")
		}
	}
	s.mu.Unlock()

	role := req.Role
	if role == "" {
		role = "user"
	}
	s.AddUser(req.Username, req.Email, req.Password, role)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.issue(s.users[req.Username])
	if err != nil {
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}
	return envelope(c, res)
}

func (s *Server) refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.refreshTokens[req.RefreshToken]
	if s.rejectRefresh || !ok {
		return detail(c, fiber.StatusUnauthorized, "Refresh token invalid or expired")
	}
	u, ok := s.users[username]
	if !ok {
		return detail(c, fiber.StatusUnauthorized, "User not found")
	}
	delete(s.refreshTokens, req.RefreshToken)

	res, err := s.issue(u)
	if err != nil {
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}
	return envelope(c, dto.RefreshResponse{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
}

func (s *Server) logout(c *fiber.Ctx) error {
	return envelope(c, nil)
}

// authMiddleware accepts only access tokens from the current generation.
func (s *Server) authMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return detail(c, fiber.StatusUnauthorized, "Not authenticated")
	}

	token, err := jwt.Parse(authHeader[7:], func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return detail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return detail(c, fiber.StatusUnauthorized, "Invalid token claims")
	}

	gen, _ := claims["gen"].(float64)
	s.mu.Lock()
	current := s.generation
	s.mu.Unlock()
	if int(gen) != current {
		return detail(c, fiber.StatusUnauthorized, "Token expired")
	}

	c.Locals("username", claims["sub"])
	c.Locals("role", claims["role"])
	return c.Next()
}

func requireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if !slices.Contains(roles, role) {
			return detail(c, fiber.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}
