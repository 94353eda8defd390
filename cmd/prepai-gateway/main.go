package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/prepai-dev/prepai/pkg/agent"
	"github.com/prepai-dev/prepai/pkg/codeexec"
	"github.com/prepai-dev/prepai/pkg/gateway/config"
	"github.com/prepai-dev/prepai/pkg/gateway/metrics"
	gatewayserver "github.com/prepai-dev/prepai/pkg/gateway/server"
	"github.com/prepai-dev/prepai/pkg/interview"
	"github.com/prepai-dev/prepai/pkg/store"
	"github.com/prepai-dev/prepai/pkg/voice/stt"
	"github.com/prepai-dev/prepai/pkg/voice/tts"
)

type gatewayDeps struct {
	loadConfig   func() (config.Config, error)
	buildServer  func(context.Context, config.Config, *slog.Logger) (*gatewayserver.Server, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultGatewayDeps() gatewayDeps {
	return gatewayDeps{
		loadConfig:  config.LoadFromEnv,
		buildServer: buildServer,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func buildServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*gatewayserver.Server, error) {
	catalog, err := interview.LoadCatalog(cfg.InterviewCatalogPath)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		st = store.NewMemory()
	default:
		st = store.NewS3(s3.NewFromConfig(awsCfg), cfg.S3Bucket)
	}

	return gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Store: st,
		Agent: agent.NewBedrock(
			bedrockagentruntime.NewFromConfig(awsCfg),
			cfg.BedrockAgentID,
			cfg.BedrockAgentAliasID,
			logger,
		),
		Transcriber: stt.NewDeepgram(cfg.DeepgramAPIKey, stt.WithModel(cfg.STTModel)),
		Synthesizer: tts.NewDeepgram(cfg.DeepgramAPIKey, tts.WithVoice(cfg.TTSVoice)),
		Executor:    codeexec.NewLambda(lambda.NewFromConfig(awsCfg), cfg.CodeExecutorFunction),
		Catalog:     catalog,
		Metrics:     metrics.New(cfg.MetricsNamespace),
	}), nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runGateway(ctx context.Context, logger *slog.Logger, deps gatewayDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.buildServer == nil {
		return errors.New("missing buildServer dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gw, err := deps.buildServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting gateway",
		"addr", cfg.Addr,
		"auth_mode", cfg.AuthMode,
		"store_backend", cfg.StoreBackend,
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	gw.SetDraining()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.WaitLiveSessions(waitCtx) {
		logger.Warn("live sessions did not drain before the grace period expired")
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func buildLogger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		return slog.New(slog.NewJSONHandler(stderr, opts))
	}
	return slog.New(slog.NewTextHandler(stderr, opts))
}

func runMain(ctx context.Context, stderr io.Writer, deps gatewayDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}

	// A missing .env file is fine; environment variables may be set directly.
	_ = godotenv.Load()

	logger := buildLogger(stderr)

	if err := runGateway(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "prepai-gateway: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultGatewayDeps()))
}
