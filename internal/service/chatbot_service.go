// FILE: internal/service/chatbot_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
	"kasbi-client/internal/mapper"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/pkg/logger"
	"kasbi-client/internal/repository/contract"
)

const chatModule = "Chatbot"

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrRequestPending = errors.New("previous message is still being answered")
)

type IChatbotService interface {
	Query(ctx context.Context, query, threadId string) (*dto.ChatQueryResponse, error)
	History(ctx context.Context, threadId string) ([]entity.ChatMessage, error)
	Threads(ctx context.Context) ([]entity.ChatThread, error)
}

type chatbotService struct {
	client IAPIClient
	mapper *mapper.ChatMapper
}

func NewChatbotService(client IAPIClient) IChatbotService {
	return &chatbotService{client: client, mapper: mapper.NewChatMapper()}
}

// Query sends one message. An empty threadId asks the server for a new thread.
func (cs *chatbotService) Query(ctx context.Context, query, threadId string) (*dto.ChatQueryResponse, error) {
	var res dto.ChatQueryResponse
	err := cs.client.DoJSON(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   constant.PathChatQuery,
		Body:   dto.ChatQueryRequest{Query: query, ThreadId: dto.FlexibleId(threadId)},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("chat query failed: %w", err)
	}
	return &res, nil
}

func (cs *chatbotService) History(ctx context.Context, threadId string) ([]entity.ChatMessage, error) {
	var res dto.ChatHistoryResponse
	err := cs.client.DoJSON(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   constant.PathChatHistory,
		Query:  url.Values{"thread_id": {threadId}},
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of thread %s: %w", threadId, err)
	}
	return cs.mapper.HistoryToEntities(threadId, res.Chats), nil
}

func (cs *chatbotService) Threads(ctx context.Context) ([]entity.ChatThread, error) {
	var res dto.ChatThreadsResponse
	err := cs.client.DoJSON(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   constant.PathChatThreads,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return cs.mapper.ThreadsToEntities(res.Threads), nil
}

// Conversation is the chat screen: the local transcript plus the persisted
// thread id that ties it to the server.
type Conversation struct {
	chatbot IChatbotService
	tokens  contract.TokenRepository
	logger  logger.ILogger
	now     func() time.Time

	mu       sync.Mutex
	messages []entity.ChatMessage
	threadId string
	pending  bool
	seq      int
}

func NewConversation(chatbot IChatbotService, tokens contract.TokenRepository, log logger.ILogger) *Conversation {
	c := &Conversation{chatbot: chatbot, tokens: tokens, logger: log, now: time.Now}
	c.messages = []entity.ChatMessage{c.greeting()}
	return c
}

func (c *Conversation) greeting() entity.ChatMessage {
	return entity.ChatMessage{Id: "greeting", Sender: entity.ChatSenderBot, Text: constant.ChatGreeting, CreatedAt: c.now()}
}

// nextId must be called with c.mu held.
func (c *Conversation) nextId() string {
	c.seq++
	return "local-" + strconv.Itoa(c.seq)
}

// Mount starts the transcript with the greeting and, when a thread is
// persisted, appends its history. A thread the server no longer knows is
// forgotten without complaint.
func (c *Conversation) Mount(ctx context.Context) error {
	threadId, err := c.tokens.ReadThreadId(ctx)
	if err != nil {
		return fmt.Errorf("failed to read thread id: %w", err)
	}

	c.mu.Lock()
	c.messages = []entity.ChatMessage{c.greeting()}
	c.threadId = threadId
	c.mu.Unlock()

	if threadId == "" {
		return nil
	}

	history, err := c.chatbot.History(ctx, threadId)
	if errors.Is(err, httpclient.ErrNotFound) {
		c.logger.Info(chatModule, "Stored thread no longer exists, starting fresh", map[string]interface{}{"thread_id": threadId})
		return c.forgetThread(ctx)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.messages = append(c.messages, history...)
	c.mu.Unlock()
	return nil
}

// Send posts text to the current thread and appends both sides of the
// exchange. Only one message may be in flight at a time.
func (c *Conversation) Send(ctx context.Context, text string) (*entity.ChatMessage, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil, ErrRequestPending
	}
	c.pending = true
	c.messages = append(c.messages, entity.ChatMessage{Id: c.nextId(), Sender: entity.ChatSenderUser, Text: query, CreatedAt: c.now()})
	threadId := c.threadId
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	res, err := c.chatbot.Query(ctx, query, threadId)
	if threadId != "" && errors.Is(err, httpclient.ErrNotFound) {
		c.logger.Info(chatModule, "Thread vanished mid-conversation, opening a new one", map[string]interface{}{"thread_id": threadId})
		if ferr := c.forgetThread(ctx); ferr != nil {
			return nil, ferr
		}
		res, err = c.chatbot.Query(ctx, query, "")
	}
	if err != nil {
		c.logger.Error(chatModule, "Query failed", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
		text := httpclient.UserMessage(err, constant.ChatUnreachableReply)
		if errors.Is(err, httpclient.ErrNetwork) {
			text = constant.ChatUnreachableReply
		}
		c.appendBot(text)
		return nil, err
	}

	if returned := res.ThreadId.String(); returned != "" && returned != threadId {
		if err := c.tokens.SaveThreadId(ctx, returned); err != nil {
			return nil, fmt.Errorf("failed to persist thread id: %w", err)
		}
		c.mu.Lock()
		c.threadId = returned
		c.mu.Unlock()
	}

	reply := c.appendBot(res.Answer)
	return &reply, nil
}

func (c *Conversation) appendBot(text string) entity.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := entity.ChatMessage{Id: c.nextId(), Sender: entity.ChatSenderBot, Text: text, CreatedAt: c.now()}
	c.messages = append(c.messages, msg)
	return msg
}

func (c *Conversation) forgetThread(ctx context.Context) error {
	c.mu.Lock()
	c.threadId = ""
	c.mu.Unlock()
	if err := c.tokens.ClearThreadId(ctx); err != nil {
		return fmt.Errorf("failed to clear thread id: %w", err)
	}
	return nil
}

// Reset starts a new chat: the next message opens a fresh thread.
func (c *Conversation) Reset(ctx context.Context) error {
	if err := c.forgetThread(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.messages = []entity.ChatMessage{c.greeting()}
	c.mu.Unlock()
	return nil
}

func (c *Conversation) Messages() []entity.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.ChatMessage(nil), c.messages...)
}

func (c *Conversation) ThreadId() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadId
}

// Pending drives the typing indicator.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Conversation) QuickQuestions() []string {
	return append([]string(nil), constant.QuickQuestions...)
}
