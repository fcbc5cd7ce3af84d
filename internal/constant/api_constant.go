package constant

const (
	PathAuthLogin    = "/v1/auth/login"
	PathAuthRegister = "/v1/auth/register"
	PathAuthLogout   = "/v1/auth/logout"
	PathAuthRefresh  = "/v1/auth/refresh"

	PathChatQuery   = "/v1/chatbot/query"
	PathChatHistory = "/v1/chatbot/history"
	PathChatThreads = "/v1/chatbot/threads"

	PathAdminDocuments      = "/v1/admin/documents"
	PathAdminInsertDocument = "/v1/admin/insertdoc"
	PathAdminDeleteDocument = "/v1/admin/deldoc"
	PathAdminUsers          = "/v1/admin/users"
	PathSuperAdminUsers     = "/v1/superadmin/users"
)
