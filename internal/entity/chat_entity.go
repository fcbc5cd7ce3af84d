// FILE: internal/entity/chat_entity.go
package entity

import "time"

type ChatSender string

const (
	ChatSenderUser ChatSender = "user"
	ChatSenderBot  ChatSender = "bot"
)

type ChatMessage struct {
	Id        string
	Sender    ChatSender
	Text      string
	CreatedAt time.Time
}

// ChatThread is a conversation known to the backend. Id is kept as the
// string form of whatever the server sent (it emits integers today).
type ChatThread struct {
	Id        string
	Title     string
	CreatedAt time.Time
}
