// FILE: internal/dto/chatbot_dto.go
package dto

type ChatQueryRequest struct {
	Query    string     `json:"query" validate:"required"`
	ThreadId FlexibleId `json:"thread_id"`
}

type ChatQueryResponse struct {
	ThreadId FlexibleId `json:"thread_id"`
	Answer   string     `json:"answer"`
}

type ChatHistoryItem struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type ChatHistoryResponse struct {
	Chats []ChatHistoryItem `json:"chats"`
}

type ChatThreadItem struct {
	ThreadId  FlexibleId `json:"thread_id"`
	Title     string     `json:"title"`
	CreatedAt string     `json:"created_at"`
}

type ChatThreadsResponse struct {
	Threads []ChatThreadItem `json:"threads"`
}
