package helper

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText: NFC + trim + spasi ganda dirapikan. Dipakai untuk nama/kode dari CSV & form.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// StrPtr: "" → nil
func StrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
