package main

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/pkg/database"
	"Inkwell/internal/pkg/es"
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/pkg/minio"
	"Inkwell/internal/pkg/mongo"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg
	gin.SetMode(cfg.Server.Mode)

	// 初始化日志
	logger.InitLogger()

	security.InitJWT(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHour)

	// 数据库连接
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		panic(err)
	}

	// Redis 连接
	if err = redis.InitRedis(cfg.Redis); err != nil {
		log.Error("Fatal error: failed to create redis connection", "err", err)
		panic(err)
	}

	// Mongo 连接，未配置时不记录审核日志
	var mongoDB *mongodriver.Database
	if cfg.Mongo.URL != "" {
		mongoDB, err = mongo.InitMongo(cfg.Mongo)
		if err != nil {
			log.Error("Fatal error: failed to create mongo connection", "err", err)
			panic(err)
		}
	} else {
		log.Warn("Mongo is not configured, moderation logs are disabled")
	}

	// MinIO 连接
	if err = minio.Init(cfg.MinIO); err != nil {
		log.Error("Fatal error: failed to initialize MinIO", "err", err)
		panic(err)
	}

	// ElasticSearch 连接，未启用时搜索回退到数据库
	var esClient *elasticsearch.TypedClient
	if cfg.Elastic.Enable {
		esClient, err = es.InitClient(cfg.Elastic)
		if err != nil {
			log.Error("Fatal error: failed to initialize ElasticSearch", "err", err)
			panic(err)
		}
	}

	// 依赖注入
	app, err := wire.BuildApplication(db, mongoDB, esClient, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if app.PostESRepo != nil {
		if err = app.PostESRepo.EnsureIndex(bootCtx); err != nil {
			log.Error("Fatal error: failed to ensure post index", "err", err)
			panic(err)
		}
	}
	if cfg.Admin.Password != "" {
		if err = app.UserService.EnsureAdmin(bootCtx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Error("Fatal error: failed to ensure admin account", "err", err)
			panic(err)
		}
	}
	bootCancel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	if err = app.CronMgr.Run(); err != nil {
		log.Error("Fatal error: failed to start cron jobs", "err", err)
		panic(err)
	}
	g.Go(func() error {
		<-ctx.Done()
		app.CronMgr.Stop()
		return nil
	})

	// Kafka 消费者
	if app.KafkaManager != nil {
		g.Go(func() error {
			log.Info("Kafka Consumers starting...")
			return app.KafkaManager.Start(ctx, cfg)
		})
	}

	// HTTP 服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}
	log.Info("App exited successfully.")
}
