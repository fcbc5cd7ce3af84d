// Package fakeapi is an in-process stand-in for the KASBI backend, used by
// tests. It keeps everything in memory and speaks the same wire format.
package fakeapi

import (
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"kasbi-client/internal/constant"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"golang.org/x/crypto/bcrypt"
)

const DefaultPassword = "secret123"

type user struct {
	id           int
	username     string
	email        string
	passwordHash []byte
	role         string
	active       bool
}

type chat struct {
	role      string
	message   string
	createdAt time.Time
}

type thread struct {
	id        int
	owner     string
	title     string
	createdAt time.Time
	chats     []chat
}

type document struct {
	id         int
	name       string
	uploadedBy string
	uploadedAt time.Time
	status     string
	// pendingLists is how many more list calls report this document as
	// pending before it flips to done. Negative means never.
	pendingLists int
}

// Server is a running fake backend. All exported methods are safe for
// concurrent use with in-flight requests.
type Server struct {
	*httptest.Server

	secret []byte

	mu             sync.Mutex
	users          map[string]*user
	nextUserId     int
	threads        map[int]*thread
	nextThreadId   int
	documents      map[int]*document
	nextDocumentId int
	refreshTokens  map[string]string // token -> username
	generation     int
	rejectRefresh  bool
	hits           map[string]int
}

// New starts a fake backend seeded with one account per role:
// admin1 (superadmin), admin (admin) and budi (user), all with
// DefaultPassword. It is closed with the test.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:         []byte("fakeapi-secret"),
		users:          make(map[string]*user),
		threads:        make(map[int]*thread),
		documents:      make(map[int]*document),
		refreshTokens:  make(map[string]string),
		hits:           make(map[string]int),
		nextUserId:     1,
		nextThreadId:   1,
		nextDocumentId: 1,
	}
	s.AddUser("admin1", "admin1@kasbi.id", DefaultPassword, "superadmin")
	s.AddUser("admin", "admin@kasbi.id", DefaultPassword, "admin")
	s.AddUser("budi", "budi@kasbi.id", DefaultPassword, "user")

	s.Server = httptest.NewServer(adaptor.FiberApp(s.app()))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) app() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(s.countHits)

	app.Post(constant.PathAuthLogin, s.login)
	app.Post(constant.PathAuthRegister, s.register)
	app.Post(constant.PathAuthRefresh, s.refresh)
	app.Post(constant.PathAuthLogout, s.logout)

	chatbot := app.Group("/v1/chatbot", s.authMiddleware)
	chatbot.Post("/query", s.query)
	chatbot.Get("/history", s.history)
	chatbot.Get("/threads", s.listThreads)

	admin := app.Group("/v1/admin", s.authMiddleware, requireRole("admin", "superadmin"))
	admin.Get("/documents", s.listDocuments)
	admin.Post("/insertdoc", s.insertDocument)
	admin.Delete("/deldoc", s.deleteDocument)
	admin.Get("/users", s.listUsers)

	super := app.Group("/v1/superadmin", s.authMiddleware, requireRole("superadmin"))
	super.Post("/users", s.createUser)
	super.Put("/users/:id", s.updateUser)
	super.Delete("/users", s.deleteUser)

	return app
}

func (s *Server) countHits(c *fiber.Ctx) error {
	s.mu.Lock()
	s.hits[c.Method()+" "+c.Path()]++
	s.mu.Unlock()
	return c.Next()
}

// Hits reports how many requests reached method+path, e.g.
// Hits("POST", "/v1/auth/refresh").
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *Server) AddUser(username, email, password, role string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextUserId
	s.nextUserId++
	s.users[username] = &user{id: id, username: username, email: email, passwordHash: hash, role: role, active: true}
	return id
}

// AddDocument seeds a document. pendingLists is only used when status is
// pending: the document turns done after that many list calls (negative
// keeps it pending forever).
func (s *Server) AddDocument(name, uploadedBy, status string, pendingLists int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextDocumentId
	s.nextDocumentId++
	s.documents[id] = &document{
		id:           id,
		name:         name,
		uploadedBy:   uploadedBy,
		uploadedAt:   time.Now().UTC().Add(time.Duration(id) * time.Second),
		status:       status,
		pendingLists: pendingLists,
	}
	return id
}

func (s *Server) DocumentStatus(id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return "", false
	}
	return d.status, true
}

// ThreadCount is the number of threads the backend has allocated.
func (s *Server) ThreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

func (s *Server) DeleteThread(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, id)
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RejectRefresh makes the refresh endpoint answer 401.
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

func (s *Server) HasUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

func (s *Server) sortedUsers() []*user {
	out := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func page[T any](items []T, c *fiber.Ctx) []T {
	if c.QueryBool("descending", false) {
		rev := make([]T, len(items))
		for i, it := range items {
			rev[len(items)-1-i] = it
		}
		items = rev
	}
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 0)
	if offset < 0 || offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"detail": fiber.Map{"message": message}})
}

func envelope(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "code": fiber.StatusOK, "message": "OK", "data": data})
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
