package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"call-insights/asr"
	"call-insights/config"
	"call-insights/constant"
	jobHandler "call-insights/handler"
	"call-insights/llm"
	"call-insights/pkg/governor"
	"call-insights/pkg/rabbitmq"
	"call-insights/repository"
	"call-insights/roles"
	"call-insights/service"
	"call-insights/storage"
)

var (
	analysisQueue = rabbitmq.QueueSpec{
		Exchange:   "analysis_exchange",
		Queue:      "analysis_queue",
		RoutingKey: "analysis.request",
	}
	retranscribeQueue = rabbitmq.QueueSpec{
		Exchange:   "analysis_exchange",
		Queue:      "retranscribe_queue",
		RoutingKey: "call.retranscribe",
	}
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	store := storage.NewStore(cfg.Storage, cfg.MinIOBucket)
	generator := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
	transcriber := asr.NewWhisperClient(cfg.ASR.TranscriberURL, cfg.ASR.Language, cfg.ASR.Timeout)
	diarizer := asr.NewDiarizerClient(cfg.ASR.DiarizerURL, cfg.ASR.Timeout)
	gov := governor.New(cfg.Pipeline.MaxConcurrentInference)

	pipeline := service.NewPipeline(repo, store, transcriber, diarizer, roles.NewResolver(generator), gov, cfg.Pipeline)
	analysisService := service.NewAnalysisService(repo, pipeline, generator)
	callService := service.NewCallService(repo, store)
	dashboardService := service.NewDashboardService(repo)

	if err := service.SeedSystemTemplates(ctx, repo); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to seed analysis templates")
	}

	serviceDeps := jobHandler.ServiceDependencies{
		AnalysisService: analysisService,
		Pipeline:        pipeline,
		Repo:            repo,
	}

	// Batches run sequentially within a consumer worker; the governor
	// bounds inference across all workers and queues.
	analysisConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, analysisQueue, cfg.Server.Workers, jobHandler.AnalysisJobHandler)
	go func() {
		if err := analysisConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Analysis consumer error")
		}
	}()

	retranscribeConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, retranscribeQueue, cfg.Server.Workers, jobHandler.RetranscribeHandler)
	go func() {
		if err := retranscribeConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Retranscribe consumer error")
		}
	}()

	api := &api{
		calls:     callService,
		dashboard: dashboardService,
		repo:      repo,
		publisher: rabbitmq.NewPublisher(conn, cfg.Queue),
	}

	r := gin.Default()
	addHealth(r)
	api.registerRoutes(r)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
