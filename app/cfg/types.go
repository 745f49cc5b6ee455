package cfg

type Cfg struct {
	// HTTP server
	Port     string
	SiteName string
	FeedsDir string

	// Background workers
	WorkerCount int
	QueueSize   int

	// Upstream providers
	UserAgent         string
	UpstreamTimeout   int // seconds
	InshortsURL       string
	MedialArticlesURL string
	MedialStartupURL  string
	MedialAccessToken string

	// Shared-secret header
	APISecret     string
	EncryptionKey string
	SecretMaxSkew int // milliseconds

	// Generative text provider
	AIProvider      string
	AIModel         string
	AIAPIKey        string
	AIBaseURL       string
	AIMaxConcurrent int
	AIRateLimit     float64
	AIRateBurst     int
	AICacheSize     int
	AICacheTTL      int // seconds
	RedisAddr       string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// SecretEnabled reports whether /api requests must carry the encrypted secret header.
func (c *Cfg) SecretEnabled() bool {
	return c.APISecret != "" && c.EncryptionKey != ""
}
