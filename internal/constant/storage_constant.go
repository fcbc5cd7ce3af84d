package constant

// Logical keys of the token store. Every backend persists exactly these.
const (
	StorageKeyAccessToken  = "access_token"
	StorageKeyRefreshToken = "refresh_token"
	StorageKeyUserData     = "user_data"
	StorageKeyThreadId     = "thread_id"
)

var StorageKeys = []string{
	StorageKeyAccessToken,
	StorageKeyRefreshToken,
	StorageKeyUserData,
	StorageKeyThreadId,
}
