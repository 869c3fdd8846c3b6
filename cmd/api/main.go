package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yeyunwen/ai-full-stack/internal/config"
	"github.com/yeyunwen/ai-full-stack/internal/handler"
	"github.com/yeyunwen/ai-full-stack/internal/service/ai"
	catalogservice "github.com/yeyunwen/ai-full-stack/internal/service/catalog"
	"github.com/yeyunwen/ai-full-stack/internal/service/chat"
	"github.com/yeyunwen/ai-full-stack/internal/service/history"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize AI service. Every stage of the pipeline needs the model, so
	// missing credentials stop the server instead of degrading it.
	if !cfg.AI.Enabled() {
		log.Fatal("Ark 凭证未配置，无法启动对话服务 - 请检查 ARK_API_KEY 与 Model 环境变量")
	}
	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Println("AI service initialized successfully")

	// Initialize catalog search. Without a shop endpoint the service answers
	// from the built-in samples.
	var shopClient catalogservice.Client
	if cfg.Shop.Enabled() {
		shopClient = catalogservice.NewHTTPClient(cfg.Shop)
		log.Printf("shop API client pointed at %s", cfg.Shop.BaseURL)
	} else {
		log.Println("商城接口未配置，推荐结果将使用内置样例数据")
	}
	finder := catalogservice.NewService(shopClient, catalogservice.NewSampleStore(catalogservice.Seed()))

	// Initialize history store
	var store history.Store
	if cfg.History.DBPath != "" {
		sqliteStore, err := history.OpenSQLite(cfg.History.DBPath)
		if err != nil {
			log.Fatalf("failed to open history database: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Printf("chat history persisted to %s", cfg.History.DBPath)
	} else {
		store = history.NewMemoryStore()
		log.Println("CHAT_DB_PATH 未配置，会话历史仅保存在内存中")
	}

	chatService := chat.NewService(aiService, finder, store)
	router := handler.NewRouter(chatService, store)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("AI shop assistant backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
