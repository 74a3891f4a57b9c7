package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config adalah snapshot ENV yang dibaca sekali saat startup lalu
// diteruskan ke constructor (service, storage, cache, mailer).
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	SupabaseJWTSecret      string
	SupabaseProjectURL     string
	SupabaseServiceRoleKey string
	SupabaseStorageBucket  string

	// "supabase" (default) | "oss"
	StorageDriver string

	OSSEndpoint      string
	OSSAccessKey     string
	OSSSecretKey     string
	OSSSecurityToken string
	OSSBucket        string
	OSSPublicBase    string
	OSSPrefix        string

	RedisURL          string
	ReferensiCacheTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	CorsAllowOrigins string
	RunSeeds         bool
	SeedFile         string
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() Config {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	cfg := Config{
		AppEnv:   GetEnv("APP_ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		Port:     GetEnv("PORT", "3000"),

		DBUser:     GetEnv("DB_USER"),
		DBPassword: GetEnv("DB_PASSWORD"),
		DBHost:     GetEnv("DB_HOST"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBName:     GetEnv("DB_NAME"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "require"),

		SupabaseJWTSecret:      GetEnv("SUPABASE_JWT_SECRET"),
		SupabaseProjectURL:     strings.TrimRight(GetEnv("SUPABASE_PROJECT_URL"), "/"),
		SupabaseServiceRoleKey: GetEnv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseStorageBucket:  GetEnv("SUPABASE_STORAGE_BUCKET", "dokumen"),

		StorageDriver: strings.ToLower(GetEnv("STORAGE_DRIVER", "supabase")),

		OSSEndpoint:      GetEnv("ALI_OSS_ENDPOINT"),
		OSSAccessKey:     GetEnv("ALI_OSS_ACCESS_KEY"),
		OSSSecretKey:     GetEnv("ALI_OSS_SECRET_KEY"),
		OSSSecurityToken: GetEnv("ALI_OSS_SECURITY_TOKEN"),
		OSSBucket:        GetEnv("ALI_OSS_BUCKET"),
		OSSPublicBase:    strings.TrimRight(GetEnv("ALI_OSS_PUBLIC_BASE"), "/"),
		OSSPrefix:        GetEnv("ALI_OSS_PREFIX", "pdam"),

		RedisURL:          GetEnv("REDIS_URL"),
		ReferensiCacheTTL: GetDuration("REFERENSI_CACHE_TTL", 10*time.Minute),

		SMTPHost:     GetEnv("SMTP_HOST"),
		SMTPPort:     GetInt("SMTP_PORT", 587),
		SMTPUser:     GetEnv("SMTP_USER"),
		SMTPPassword: GetEnv("SMTP_PASSWORD"),
		SMTPFrom:     GetEnv("SMTP_FROM", "no-reply@pdam.local"),

		CorsAllowOrigins: GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		RunSeeds:         GetBool("RUN_SEEDS", false),
		SeedFile:         GetEnv("SEED_FILE", "internals/seeds/referensi/data_referensi.json"),
	}

	if cfg.SupabaseJWTSecret == "" {
		log.Println("❌ SUPABASE_JWT_SECRET belum diset!")
	} else {
		log.Println("✅ SUPABASE_JWT_SECRET berhasil dimuat.")
	}
	if cfg.SupabaseProjectURL == "" && cfg.StorageDriver == "supabase" {
		log.Println("❌ SUPABASE_PROJECT_URL belum diset, upload dokumen akan gagal")
	}

	return cfg
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetInt(key string, def int) int {
	if v := GetEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func GetBool(key string, def bool) bool {
	if v := GetEnv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetDuration menerima format Go ("90s", "10m") atau angka detik.
func GetDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// IsProduction dipakai untuk memilih format logger & level detail error.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
