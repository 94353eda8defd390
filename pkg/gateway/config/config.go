package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type StoreBackend string

const (
	StoreBackendS3     StoreBackend = "s3"
	StoreBackendMemory StoreBackend = "memory"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// If true, client identity may be derived from proxy headers like X-Forwarded-For.
	// This should only be enabled when the gateway is deployed behind a trusted proxy/LB.
	TrustProxyHeaders bool

	MaxBodyBytes int64

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Live WebSocket mode (/ws/interview).
	LiveMaxJSONMessageBytes    int64
	LiveMaxAudioFPS            int
	LiveMaxAudioBytesPerSecond int64
	LiveInboundBurstSeconds    int
	LiveWSPingInterval         time.Duration
	LiveWSWriteTimeout         time.Duration
	LiveWSReadTimeout          time.Duration
	LiveMaxSessionDuration     time.Duration
	LiveTurnTimeout            time.Duration

	// In-memory limits (per principal).
	LimitRPS                  float64
	LimitBurst                int
	LimitMaxSessionsPerClient int

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration

	// Persistence.
	StoreBackend StoreBackend
	AWSRegion    string
	S3Bucket     string

	// Conversational agent.
	BedrockAgentID      string
	BedrockAgentAliasID string

	// Candidate code execution.
	CodeExecutorFunction string

	// Voice providers.
	DeepgramAPIKey string
	STTModel       string
	TTSVoice       string

	// Optional YAML file overriding the built-in interview type catalog.
	InterviewCatalogPath string

	MetricsNamespace string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                       envOr("PREPAI_ADDR", ":8080"),
		AuthMode:                   AuthMode(envOr("PREPAI_AUTH_MODE", string(AuthModeDisabled))),
		APIKeys:                    make(map[string]struct{}),
		TrustProxyHeaders:          envBoolOr("PREPAI_TRUST_PROXY_HEADERS", false),
		MaxBodyBytes:               envInt64Or("PREPAI_MAX_BODY_BYTES", 1<<20), // 1 MiB
		CORSAllowedOrigins:         make(map[string]struct{}),
		LiveMaxJSONMessageBytes:    envInt64Or("PREPAI_LIVE_MAX_JSON_MESSAGE_BYTES", 1<<20),
		LiveMaxAudioFPS:            envIntOr("PREPAI_LIVE_MAX_AUDIO_FPS", 120),
		LiveMaxAudioBytesPerSecond: envInt64Or("PREPAI_LIVE_MAX_AUDIO_BPS", 512*1024),
		LiveInboundBurstSeconds:    envIntOr("PREPAI_LIVE_INBOUND_BURST_SECONDS", 2),
		LiveWSPingInterval:         envDurationOr("PREPAI_LIVE_WS_PING_INTERVAL", 20*time.Second),
		LiveWSWriteTimeout:         envDurationOr("PREPAI_LIVE_WS_WRITE_TIMEOUT", 5*time.Second),
		LiveWSReadTimeout:          envDurationOr("PREPAI_LIVE_WS_READ_TIMEOUT", 0),
		LiveMaxSessionDuration:     envDurationOr("PREPAI_LIVE_MAX_DURATION", 2*time.Hour),
		LiveTurnTimeout:            envDurationOr("PREPAI_LIVE_TURN_TIMEOUT", 60*time.Second),
		LimitRPS:                   envFloat64Or("PREPAI_RATE_LIMIT_RPS", 5.0),
		LimitBurst:                 envIntOr("PREPAI_RATE_LIMIT_BURST", 10),
		LimitMaxSessionsPerClient:  envIntOr("PREPAI_MAX_SESSIONS_PER_CLIENT", 2),
		ReadHeaderTimeout:          envDurationOr("PREPAI_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:                envDurationOr("PREPAI_READ_TIMEOUT", 30*time.Second),
		HandlerTimeout:             envDurationOr("PREPAI_TOTAL_REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod:        envDurationOr("PREPAI_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		StoreBackend:               StoreBackend(envOr("PREPAI_STORE_BACKEND", string(StoreBackendS3))),
		AWSRegion:                  envOr("AWS_REGION", "ap-south-1"),
		S3Bucket:                   envOr("PREPAI_S3_BUCKET", ""),
		BedrockAgentID:             envOr("PREPAI_BEDROCK_AGENT_ID", ""),
		BedrockAgentAliasID:        envOr("PREPAI_BEDROCK_AGENT_ALIAS_ID", ""),
		CodeExecutorFunction:       envOr("PREPAI_CODE_EXECUTOR_FUNCTION", "prepai-code-executor"),
		DeepgramAPIKey:             envOr("DEEPGRAM_API_KEY", ""),
		STTModel:                   envOr("PREPAI_STT_MODEL", "nova-2"),
		TTSVoice:                   envOr("PREPAI_TTS_VOICE", "aura-orion-en"),
		InterviewCatalogPath:       envOr("PREPAI_INTERVIEW_CATALOG", ""),
		MetricsNamespace:           envOr("PREPAI_METRICS_NAMESPACE", "prepai"),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("PREPAI_AUTH_MODE must be one of required|optional|disabled")
	}

	switch cfg.StoreBackend {
	case StoreBackendS3, StoreBackendMemory:
	default:
		return Config{}, fmt.Errorf("PREPAI_STORE_BACKEND must be one of s3|memory")
	}

	for _, key := range splitCSV(os.Getenv("PREPAI_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}

	for _, origin := range splitCSV(os.Getenv("PREPAI_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("PREPAI_MAX_BODY_BYTES must be > 0")
	}
	if cfg.LiveMaxJSONMessageBytes <= 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_MAX_JSON_MESSAGE_BYTES must be > 0")
	}
	if cfg.LiveMaxAudioFPS < 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_MAX_AUDIO_FPS must be >= 0")
	}
	if cfg.LiveMaxAudioBytesPerSecond < 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_MAX_AUDIO_BPS must be >= 0")
	}
	if cfg.LiveInboundBurstSeconds < 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_INBOUND_BURST_SECONDS must be >= 0")
	}
	if (cfg.LiveMaxAudioFPS > 0 || cfg.LiveMaxAudioBytesPerSecond > 0) && cfg.LiveInboundBurstSeconds < 1 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_INBOUND_BURST_SECONDS must be >= 1 when inbound audio limits are enabled")
	}
	if cfg.LiveWSPingInterval <= 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.LiveWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSReadTimeout < 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_WS_READ_TIMEOUT must be >= 0")
	}
	if cfg.LiveMaxSessionDuration <= 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_MAX_DURATION must be > 0")
	}
	if cfg.LiveTurnTimeout < 0 {
		return Config{}, fmt.Errorf("PREPAI_LIVE_TURN_TIMEOUT must be >= 0")
	}
	if cfg.LimitRPS < 0 {
		return Config{}, fmt.Errorf("PREPAI_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.LimitBurst < 0 {
		return Config{}, fmt.Errorf("PREPAI_RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.LimitMaxSessionsPerClient < 0 {
		return Config{}, fmt.Errorf("PREPAI_MAX_SESSIONS_PER_CLIENT must be >= 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("PREPAI_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("PREPAI_READ_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("PREPAI_TOTAL_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("PREPAI_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	if cfg.StoreBackend == StoreBackendS3 && strings.TrimSpace(cfg.S3Bucket) == "" {
		return Config{}, fmt.Errorf("PREPAI_S3_BUCKET must be set when PREPAI_STORE_BACKEND=s3")
	}
	if strings.TrimSpace(cfg.BedrockAgentID) == "" {
		return Config{}, fmt.Errorf("PREPAI_BEDROCK_AGENT_ID must be set")
	}
	if strings.TrimSpace(cfg.BedrockAgentAliasID) == "" {
		return Config{}, fmt.Errorf("PREPAI_BEDROCK_AGENT_ALIAS_ID must be set")
	}
	if strings.TrimSpace(cfg.DeepgramAPIKey) == "" {
		return Config{}, fmt.Errorf("DEEPGRAM_API_KEY must be set")
	}

	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("PREPAI_API_KEYS must be set when PREPAI_AUTH_MODE=required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
