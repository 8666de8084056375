package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/config"
	"geoquiz-service/internal/generator"
	"geoquiz-service/internal/grader"
	"geoquiz-service/internal/infra/memory"
	redisinfra "geoquiz-service/internal/infra/redis"
	"geoquiz-service/internal/logger"
	"geoquiz-service/internal/obfuscate"
	"geoquiz-service/internal/oracle"
	transport "geoquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	topicTTL := config.TTLDuration(cfg.Quiz.TopicTTL, 10*time.Minute)
	oracleTimeout := config.TTLDuration(cfg.Oracle.Timeout, 30*time.Second)

	oracleOpts := []oracle.GroqOption{
		oracle.WithModel(cfg.Oracle.Model),
		oracle.WithTimeout(oracleTimeout),
	}
	if cfg.Oracle.BaseURL != "" {
		oracleOpts = append(oracleOpts, oracle.WithBaseURL(cfg.Oracle.BaseURL))
	}
	oracleClient := oracle.NewGroqClient(cfg.Oracle.APIKey, log, oracleOpts...)

	codec := obfuscate.NewBase64()
	locations := generator.New(oracleClient, codec, log, cfg.Quiz.LocationCount)
	answerGrader := grader.New(oracleClient, log)

	var topics app.TopicSource
	if redisClient != nil {
		topics = redisinfra.NewTopicCache(redisClient, locations, topicTTL)
	} else {
		topics = memory.NewTopicCache(locations, topicTTL)
	}

	sessionConfig := app.SessionConfig{
		TimeLimit:    cfg.Quiz.TimeLimit,
		TickInterval: config.TTLDuration(cfg.Quiz.TickInterval, time.Second),
	}
	factory := func(id string) *app.Session {
		return app.NewSession(id, sessionConfig)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, factory, redisTTL)
	} else {
		store = memory.NewSessionStore(factory)
	}

	creds := app.Credentials{OracleKey: cfg.Oracle.APIKey, MapKey: cfg.Maps.APIKey}
	service := app.NewQuizService(store, locations, topics, answerGrader, codec, creds, log)
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting geoquiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
