package constant

const (
	ChatbotName = "KASBI"

	// First bubble of every conversation, never sent to or stored by the server.
	ChatGreeting = "Halo, saya KASBI. Ada yang bisa saya bantu seputar BPMP Papua?"

	// Shown while a query is outstanding.
	ChatPendingIndicator = "KASBI sedang memproses..."

	// Bot bubble appended when a query could not be answered.
	ChatUnreachableReply = "Maaf, server KASBI belum merespons. Pastikan backend aktif."

	// Server-side role names in chat history. Anything other than user is
	// rendered as the bot.
	ChatHistoryRoleUser      = "user"
	ChatHistoryRoleAssistant = "assistant"
)

var QuickQuestions = []string{
	"Apa itu BPMP Papua?",
	"Program prioritas BPMP Papua?",
	"Cara menghubungi ULT BPMP?",
	"Tugas dan fungsi BPMP?",
}
