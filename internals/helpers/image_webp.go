package helper

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

type WebPOptions struct {
	MaxW    int
	MaxH    int
	Quality float32
}

var DefaultWebPOptions = WebPOptions{MaxW: 1600, MaxH: 1600, Quality: 80}

// NormalizeImage: decode (jpeg/png/webp, orientasi EXIF), perkecil bila perlu, encode WebP.
// PDF dibiarkan apa adanya; format lain ditolak.
func NormalizeImage(up Upload, opt WebPOptions) (Upload, error) {
	head := up.Data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if strings.Contains(ct, "pdf") {
		up.ContentType = "application/pdf"
		return up, nil
	}

	img, err := imaging.Decode(bytes.NewReader(up.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Upload{}, ErrValidation("Format file %q tidak didukung (pakai jpg/png/webp/pdf)", up.Filename)
	}
	b := img.Bounds()
	if (opt.MaxW > 0 && b.Dx() > opt.MaxW) || (opt.MaxH > 0 && b.Dy() > opt.MaxH) {
		img = imaging.Fit(img, opt.MaxW, opt.MaxH, imaging.Lanczos)
	}

	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: q}); err != nil {
		return Upload{}, err
	}

	base := strings.TrimSuffix(up.Filename, filepath.Ext(up.Filename))
	if base == "" {
		base = "foto"
	}
	return Upload{Filename: base + ".webp", ContentType: "image/webp", Data: buf.Bytes()}, nil
}

// WebPStorage membungkus FileStorage lain: setiap upload dinormalisasi ke WebP dulu.
type WebPStorage struct {
	Next    FileStorage
	Options WebPOptions
}

func NewWebPStorage(next FileStorage) *WebPStorage {
	return &WebPStorage{Next: next, Options: DefaultWebPOptions}
}

func (s *WebPStorage) Upload(ctx context.Context, folder string, up Upload) (string, error) {
	normalized, err := NormalizeImage(up, s.Options)
	if err != nil {
		return "", err
	}
	return s.Next.Upload(ctx, folder, normalized)
}

func (s *WebPStorage) Delete(ctx context.Context, publicURL string) error {
	return s.Next.Delete(ctx, publicURL)
}
