package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"minoj/internal/common/cache"
	"minoj/internal/common/db"
	commonmw "minoj/internal/common/http/middleware"
	"minoj/internal/judge/controller"
	"minoj/internal/judge/engine"
	"minoj/internal/judge/lang"
	"minoj/internal/judge/queue"
	"minoj/internal/judge/repository"
	"minoj/internal/judge/sandbox/runner"
	"minoj/internal/judge/worker"
	"minoj/pkg/utils/logger"
)

const defaultConfigPath = "configs/ojserver.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	mysqlDB, err := db.NewMySQL(&appCfg.Database)
	if err != nil {
		logger.Error(context.Background(), "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mysqlDB.Close()
	}()

	var mirror *repository.StatusMirror
	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(&appCfg.Redis)
		if err != nil {
			logger.Error(context.Background(), "init redis failed", zap.Error(err))
			return
		}
		defer func() {
			_ = redisCache.Close()
		}()
		mirror = repository.NewStatusMirror(redisCache)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	judgeJobs := queue.NewStore(mysqlDB, queue.JudgeJobsTable)
	runJobs := queue.NewStore(mysqlDB, queue.RunJobsTable)
	if err := judgeJobs.Migrate(ctx); err != nil {
		logger.Error(ctx, "migrate judge queue failed", zap.Error(err))
		return
	}
	if err := runJobs.Migrate(ctx); err != nil {
		logger.Error(ctx, "migrate run queue failed", zap.Error(err))
		return
	}

	submissions := repository.NewSubmissionRepository(mysqlDB)
	problems := repository.NewProblemRepository(mysqlDB)

	// The inline drain shares the worker implementation; the queue's
	// conditional claim keeps it safe next to a dedicated judged process.
	var drainer controller.Drainer
	if appCfg.InlineDrain {
		judgeEngine := engine.New(
			runner.New(),
			lang.NewResolver(&appCfg.Languages),
			submissions,
			problems,
			repository.NewUserRepository(mysqlDB),
			mirror,
			appCfg.WorkDir,
		)
		drainer = worker.New(appCfg.Worker, judgeJobs, runJobs, judgeEngine, judgeEngine, mirror)
	}

	judgeController := controller.NewJudgeController(submissions, problems, judgeJobs, runJobs, mirror, drainer)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(commonmw.RequestLoggerMiddleware())
	judgeController.RegisterRoutes(router.Group("/api/v1"))

	server := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  appCfg.Server.ReadTimeout.Std(),
		WriteTimeout: appCfg.Server.WriteTimeout.Std(),
		IdleTimeout:  appCfg.Server.IdleTimeout.Std(),
	}

	go func() {
		logger.Info(ctx, "http server listening", zap.String("addr", appCfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown failed", zap.Error(err))
	}
}
