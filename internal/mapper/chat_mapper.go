package mapper

import (
	"strconv"
	"strings"

	"kasbi-client/internal/constant"
	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// HistoryToEntities keeps server order. Message ids are positional since the
// history endpoint does not return any.
func (m *ChatMapper) HistoryToEntities(threadId string, items []dto.ChatHistoryItem) []entity.ChatMessage {
	messages := make([]entity.ChatMessage, 0, len(items))
	for i, it := range items {
		messages = append(messages, entity.ChatMessage{
			Id:        threadId + "-" + strconv.Itoa(i),
			Sender:    m.SenderFromRole(it.Role),
			Text:      it.Message,
			CreatedAt: parseTime(it.CreatedAt),
		})
	}
	return messages
}

// SenderFromRole treats every non-user role as the bot.
func (m *ChatMapper) SenderFromRole(role string) entity.ChatSender {
	if strings.EqualFold(strings.TrimSpace(role), constant.ChatHistoryRoleUser) {
		return entity.ChatSenderUser
	}
	return entity.ChatSenderBot
}

func (m *ChatMapper) ThreadsToEntities(items []dto.ChatThreadItem) []entity.ChatThread {
	threads := make([]entity.ChatThread, 0, len(items))
	for _, it := range items {
		if it.ThreadId == "" {
			continue
		}
		threads = append(threads, entity.ChatThread{
			Id:        it.ThreadId.String(),
			Title:     it.Title,
			CreatedAt: parseTime(it.CreatedAt),
		})
	}
	return threads
}
