package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/gateway/lifecycle"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config    config.Config
	Lifecycle *lifecycle.Lifecycle
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK            bool     `json:"ok"`
		AuthMode      string   `json:"auth_mode"`
		StoreBackend  string   `json:"store_backend"`
		LimitsEnabled bool     `json:"limits_enabled"`
		Issues        []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Lifecycle.IsDraining() {
		issues = append(issues, "gateway is draining")
	}

	switch h.Config.AuthMode {
	case config.AuthModeRequired, config.AuthModeOptional, config.AuthModeDisabled:
	default:
		issues = append(issues, "invalid auth_mode")
	}
	if h.Config.AuthMode == config.AuthModeRequired && len(h.Config.APIKeys) == 0 {
		issues = append(issues, "auth_mode=required but no api keys configured")
	}

	switch h.Config.StoreBackend {
	case config.StoreBackendS3, config.StoreBackendMemory:
	default:
		issues = append(issues, "invalid store_backend")
	}
	if h.Config.StoreBackend == config.StoreBackendS3 && h.Config.S3Bucket == "" {
		issues = append(issues, "store_backend=s3 but no s3 bucket configured")
	}

	if h.Config.MaxBodyBytes <= 0 {
		issues = append(issues, "max_body_bytes must be > 0")
	}
	if h.Config.LiveMaxJSONMessageBytes <= 0 {
		issues = append(issues, "live max json message bytes must be > 0")
	}
	if h.Config.LiveWSPingInterval <= 0 {
		issues = append(issues, "live ws ping interval must be > 0")
	}
	if h.Config.LiveWSWriteTimeout <= 0 {
		issues = append(issues, "live ws write timeout must be > 0")
	}
	if h.Config.LiveMaxSessionDuration <= 0 {
		issues = append(issues, "live max session duration must be > 0")
	}
	if h.Config.BedrockAgentID == "" || h.Config.BedrockAgentAliasID == "" {
		issues = append(issues, "bedrock agent not configured")
	}
	if h.Config.DeepgramAPIKey == "" {
		issues = append(issues, "deepgram api key not configured")
	}
	if h.Config.ReadHeaderTimeout <= 0 || h.Config.ReadTimeout <= 0 || h.Config.HandlerTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}

	limitsEnabled := h.Config.LimitRPS > 0 && h.Config.LimitBurst > 0

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:            ok,
		AuthMode:      string(h.Config.AuthMode),
		StoreBackend:  string(h.Config.StoreBackend),
		LimitsEnabled: limitsEnabled,
		Issues:        issues,
	})
}
