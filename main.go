package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"CipherGate-backend/docs"
	"CipherGate-backend/internal/attendance"
	"CipherGate-backend/internal/face"
	"CipherGate-backend/internal/platform/auth"
	"CipherGate-backend/internal/platform/db"
	"CipherGate-backend/internal/settings"
	"CipherGate-backend/internal/uploads"
	"CipherGate-backend/internal/workers"
)

// @title                       CipherGate attendance API
// @version                     1.0
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig(db.DefaultConfigPath)
	if err != nil {
		panic(err)
	}

	// run 内の defer（DB・janitor の後始末）を通してから終了する
	if err := run(cfg); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

func run(cfg *db.Config) error {
	// 動作モード取得
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: APP_MODE=[dev|release] go run main.go")
		return nil
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	// 顔写真の保存先と一時ファイル掃除
	files, err := uploads.New(cfg.Uploads.Dir, cfg.Uploads.TempDir, cfg.Uploads.PublicURL)
	if err != nil {
		return err
	}
	janitor, err := files.StartJanitor(cfg.Uploads.SweepEvery, cfg.Uploads.MaxAge)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	encoder := face.NewProcessEncoder(cfg.Face.Command, cfg.Face.Args, cfg.Face.Timeout)
	loc := attendance.LoadBusinessLocation(cfg.Attendance.Timezone)
	log.Printf("[INFO] business timezone: %s", loc)

	workerStore := workers.NewStore(conn)
	settingsStore := settings.NewStore(conn)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)
	r.MaxMultipartMemory = uploads.MaxImageBytes

	if mode == "dev" {
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))

		// Swagger UI（開発中のみ）
		docs.SwaggerInfo.Version = cfg.Version
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// 登録済み顔写真
	r.Static(cfg.Uploads.PublicURL, cfg.Uploads.Dir)

	requireAuth := auth.RequireAuth([]byte(cfg.Auth.JWTSecret))

	// /api
	api := r.Group("/api")
	attendance.RegisterRoutes(api,
		attendance.NewService(attendance.NewStore(conn), workerStore, settingsStore, encoder, loc),
		files, requireAuth)

	adminOnly := api.Group("", requireAuth, auth.RequireRole(auth.RoleAdmin))
	workers.RegisterRoutes(adminOnly, workers.NewService(workerStore, encoder, files), files)
	settings.RegisterRoutes(adminOnly, settings.NewService(settingsStore))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
			return
		}
		c.Status(http.StatusNotFound)
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listen := func() error {
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			// TLS設定（dev / release で証明書の置き場所を分ける）
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://0.0.0.0%s", cfg.Server.Addr)
			return srv.ListenAndServeTLS(certFile, keyFile)
		}
		log.Printf("[WARN] no certificate configured, listening on http://0.0.0.0%s", cfg.Server.Addr)
		return srv.ListenAndServe()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	return serve(srv, listen, quit)
}

// serve: listen をバックグラウンドで回し、シグナルで graceful shutdown。
// listen 自体が失敗したらそのエラーを呼び出し元へ返す
func serve(srv *http.Server, listen func() error, quit <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := listen(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped: %w", err)
	case <-quit:
	}
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
