package seeds

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/seeds/referensi"
)

// RunAllSeeds dijalankan saat RUN_SEEDS=true. Aman diulang.
func RunAllSeeds(db *gorm.DB, seedFile string, log *zap.Logger) error {
	//* Referensi + admin awal
	return referensi.SeedReferensiFromJSON(db, seedFile, log)
}
