package helper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Upload adalah file yang sudah dibaca ke memori (maks. beberapa MB, foto dokumen).
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u Upload) Empty() bool { return len(u.Data) == 0 }

// FileStorage menerima file dan mengembalikan URL publik yang stabil.
// Record hanya menyimpan URL tersebut.
type FileStorage interface {
	Upload(ctx context.Context, folder string, up Upload) (publicURL string, err error)
	Delete(ctx context.Context, publicURL string) error
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

func sanitizeFilename(filename string) string {
	safe := unsafeFilenameChars.ReplaceAllString(filename, "_")
	if safe == "" || safe == "." {
		return "file"
	}
	return safe
}

// GenerateUniqueFilename: folder/20060102-<uuid>-<nama-aman>
func GenerateUniqueFilename(folder, originalFilename string) string {
	timestamp := time.Now().Format("20060102")
	name := fmt.Sprintf("%s-%s-%s", timestamp, uuid.New().String(), sanitizeFilename(originalFilename))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

/* =======================================================================
   Supabase Storage (REST)
======================================================================= */

type SupabaseStorage struct {
	ProjectURL     string
	ServiceRoleKey string
	Bucket         string
	Client         *http.Client
}

func NewSupabaseStorage(projectURL, serviceRoleKey, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		ProjectURL:     strings.TrimRight(projectURL, "/"),
		ServiceRoleKey: serviceRoleKey,
		Bucket:         bucket,
		Client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStorage) Upload(ctx context.Context, folder string, up Upload) (string, error) {
	if s.ProjectURL == "" || s.ServiceRoleKey == "" {
		return "", errors.New("SUPABASE_PROJECT_URL atau SUPABASE_SERVICE_ROLE_KEY belum diset")
	}
	filename := GenerateUniqueFilename(folder, up.Filename)
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.ProjectURL, s.Bucket, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(up.Data))
	if err != nil {
		return "", errors.Wrap(err, "gagal membuat request upload")
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
	ct := up.ContentType
	if ct == "" {
		ct = http.DetectContentType(up.Data)
	}
	req.Header.Set("Content-Type", ct)
	req.Header.Set("x-upsert", "false")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "gagal mengirim request upload")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.Errorf("upload gagal status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.ProjectURL, s.Bucket, escapePath(filename)), nil
}

func (s *SupabaseStorage) Delete(ctx context.Context, publicURL string) error {
	bucket, path, err := ExtractSupabasePath(publicURL)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.ProjectURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "gagal membuat request hapus")
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "gagal mengirim request hapus")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Errorf("delete gagal status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func ExtractSupabasePath(fullURL string) (bucket string, path string, err error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(u.Path, "/object/public/", 2)
	if len(parts) < 2 {
		return "", "", errors.New("url tidak valid untuk Supabase public object")
	}
	pathParts := strings.SplitN(parts[1], "/", 2)
	if len(pathParts) < 2 {
		return "", "", errors.New("gagal ekstrak bucket dan path")
	}
	return pathParts[0], pathParts[1], nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
