package fakeapi

import (
	"sort"
	"strconv"
	"time"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const timeLayout = "2006-01-02T15:04:05"

func (s *Server) query(c *fiber.Ctx) error {
	var req dto.ChatQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Query == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "query is required")
	}
	username, _ := c.Locals("username").(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	var th *thread
	if req.ThreadId == "" {
		th = &thread{id: s.nextThreadId, owner: username, title: req.Query, createdAt: time.Now().UTC()}
		s.nextThreadId++
		s.threads[th.id] = th
	} else {
		id, ok := atoi(req.ThreadId.String())
		if ok {
			th = s.threads[id]
		}
		if th == nil || th.owner != username {
			return detail(c, fiber.StatusNotFound, "Thread not found")
		}
	}

	answer := "Jawaban untuk: " + req.Query
	now := time.Now().UTC()
	th.chats = append(th.chats,
		chat{role: constant.ChatHistoryRoleUser, message: req.Query, createdAt: now},
		chat{role: constant.ChatHistoryRoleAssistant, message: answer, createdAt: now},
	)

	return c.JSON(fiber.Map{"thread_id": th.id, "answer": answer})
}

func (s *Server) history(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)
	id, ok := atoi(c.Query("thread_id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	th := s.threads[id]
	if !ok || th == nil || th.owner != username {
		return detail(c, fiber.StatusNotFound, "Thread not found")
	}

	chats := make([]dto.ChatHistoryItem, 0, len(th.chats))
	for _, ch := range th.chats {
		chats = append(chats, dto.ChatHistoryItem{
			Role:      ch.role,
			Message:   ch.message,
			CreatedAt: ch.createdAt.Format(timeLayout),
		})
	}
	return c.JSON(dto.ChatHistoryResponse{Chats: chats})
}

func (s *Server) listThreads(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]*thread, 0)
	for _, th := range s.threads {
		if th.owner == username {
			owned = append(owned, th)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].id < owned[j].id })

	items := make([]dto.ChatThreadItem, 0, len(owned))
	for _, th := range owned {
		items = append(items, dto.ChatThreadItem{
			ThreadId:  dto.FlexibleId(strconv.Itoa(th.id)),
			Title:     th.title,
			CreatedAt: th.createdAt.Format(timeLayout),
		})
	}
	return c.JSON(dto.ChatThreadsResponse{Threads: items})
}
