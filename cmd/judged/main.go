package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"minoj/internal/common/cache"
	"minoj/internal/common/db"
	"minoj/internal/judge/engine"
	"minoj/internal/judge/lang"
	"minoj/internal/judge/queue"
	"minoj/internal/judge/repository"
	"minoj/internal/judge/sandbox/runner"
	"minoj/internal/judge/worker"
	"minoj/pkg/utils/logger"
)

const defaultConfigPath = "configs/judged.yaml"

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

	// The status mirror is optional; judging runs without redis.
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

	judgeEngine := engine.New(
		runner.New(),
		lang.NewResolver(&appCfg.Languages),
		repository.NewSubmissionRepository(mysqlDB),
		repository.NewProblemRepository(mysqlDB),
		repository.NewUserRepository(mysqlDB),
		mirror,
		appCfg.WorkDir,
	)

	w := worker.New(appCfg.Worker, judgeJobs, runJobs, judgeEngine, judgeEngine, mirror)
	w.Run(ctx)
}
