package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/configs"
	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	registrasiModel "pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
	staffModel "pdam_pelanggan_backend/internals/features/users/staff/model"
)

var DB *gorm.DB

func ConnectDB(cfg configs.Config, log *zap.Logger) (*gorm.DB, error) {
	log.Info("🔌 Koneksi ke PostgreSQL (Supabase)...")

	// Catatan: kalau pakai PgBouncer, ganti host/port ke port PgBouncer (mis. 6543) dan biarkan PreferSimpleProtocol=true
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=pdam_pelanggan&options=-c statement_timeout=5000",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(log, cfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gagal konek DB")
	}
	DB = db
	log.Info("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("pool tune err", zap.Error(err))
		return
	}
	// ⚖️ Sesuaikan dengan limit Supabase/PgBouncer
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries(db *gorm.DB, log *zap.Logger) {
	// jalankan ringan supaya koneksi/pool “keisi” & siap
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(context.Background(), db); err != nil {
			log.Warn("warm-up ping err", zap.Error(err))
			return
		}
		var n int64
		db.Table(unitModel.KindDesa.Table()).Where("is_active = ?", true).Count(&n)
	}()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// AutoMigrate membuat/menyesuaikan semua tabel aplikasi.
func AutoMigrate(db *gorm.DB) error {
	models := unitModel.MigrationModels()
	models = append(models,
		&staffModel.StaffUserModel{},
		&pelangganModel.PelangganModel{},
		&registrasiModel.RegistrasiModel{},
	)
	return errors.Wrap(db.AutoMigrate(models...), "auto migrate")
}
