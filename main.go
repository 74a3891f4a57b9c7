package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"
	"go.uber.org/zap"

	"pdam_pelanggan_backend/internals/caches"
	"pdam_pelanggan_backend/internals/configs"
	database "pdam_pelanggan_backend/internals/databases"
	registrasiService "pdam_pelanggan_backend/internals/features/registrasi/registrasi/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	middlewares "pdam_pelanggan_backend/internals/middlewares"
	routes "pdam_pelanggan_backend/internals/route"
	"pdam_pelanggan_backend/internals/seeds"
)

func main() {
	cfg := configs.LoadEnv()
	log := configs.NewLogger(cfg)
	defer func() { _ = log.Sync() }()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.NewErrorHandler(log),
		BodyLimit:               12 * 1024 * 1024, // impor 10MB + overhead multipart
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timeout guard
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		// selaras dengan statement_timeout di DB; ekspor/impor diberi napas lebih
		timeout := 5 * time.Second
		if strings.HasPrefix(c.Path(), "/api/u/laporan") {
			timeout = 60 * time.Second
		}
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	middlewares.SetupMiddlewares(app, cfg, log)

	// 🔌 DB connect + pool + warm-up
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("koneksi DB gagal", zap.Error(err))
	}
	database.TunePool(db, log)
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrasi gagal", zap.Error(err))
	}
	database.WarmUpQueries(db, log)

	if cfg.RunSeeds {
		if err := seeds.RunAllSeeds(db, cfg.SeedFile, log); err != nil {
			log.Fatal("seed gagal", zap.Error(err))
		}
	}

	// 🧠 cache referensi: Redis kalau ada, selain itu in-process
	var cache caches.JSONCache = caches.NewMemoryCache()
	redisClient, err := caches.NewRedisClient(context.Background(), cfg.RedisURL)
	switch {
	case err != nil:
		log.Warn("redis tidak tersedia, pakai cache memori", zap.Error(err))
	case redisClient != nil:
		cache = caches.NewRedisCache(redisClient, "pdam:referensi:", cfg.ReferensiCacheTTL, log)
		defer func() { _ = redisClient.Close() }()
		log.Info("✅ Redis connected.")
	}

	storage := newStorage(cfg, log)

	notifier := registrasiService.NewNotifier(registrasiService.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		DB:       db,
		Config:   cfg,
		Log:      log,
		Cache:    cache,
		Storage:  storage,
		Notifier: notifier,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 90 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	// Start server non-blocking
	go func() {
		log.Info("✅ Listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown + tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newStorage memilih backend dokumen registrasi; gambar dikonversi ke WebP sebelum upload.
func newStorage(cfg configs.Config, log *zap.Logger) helper.FileStorage {
	switch cfg.StorageDriver {
	case "oss":
		oss, err := helper.NewOSSStorage(helper.OSSConfig{
			Endpoint:      cfg.OSSEndpoint,
			AccessKey:     cfg.OSSAccessKey,
			SecretKey:     cfg.OSSSecretKey,
			SecurityToken: cfg.OSSSecurityToken,
			Bucket:        cfg.OSSBucket,
			PublicBase:    cfg.OSSPublicBase,
			Prefix:        cfg.OSSPrefix,
		})
		if err != nil {
			log.Error("OSS storage tidak aktif, upload dokumen akan ditolak", zap.Error(err))
			return nil
		}
		return helper.NewWebPStorage(oss)
	default:
		if cfg.SupabaseProjectURL == "" {
			return nil
		}
		return helper.NewWebPStorage(helper.NewSupabaseStorage(
			cfg.SupabaseProjectURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseStorageBucket,
		))
	}
}
