package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

const (
	noRegistrasiPrefix   = "REG"
	noRegistrasiAttempts = 5
)

// GenerateNoRegistrasi: REG-YYYYMMDD-XXXXXX (6 hex kapital, acak).
func GenerateNoRegistrasi(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return noRegistrasiPrefix + "-" + now.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(b)), nil
}
