package redis

const (
	// KeyPrefixVideo is the prefix for per-video bookmark list keys
	KeyPrefixVideo = "seekmark:video:"
)

// VideoKey returns the Redis key holding the bookmark list for a video
func VideoKey(videoID string) string {
	return KeyPrefixVideo + videoID
}
