package helper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

// OSSStorage: alternatif FileStorage (STORAGE_DRIVER=oss).
type OSSStorage struct {
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	PublicBase string
	Prefix     string
}

type OSSConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	SecurityToken string
	Bucket        string
	PublicBase    string
	Prefix        string
}

func NewOSSStorage(cfg OSSConfig) (*OSSStorage, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}
	var opts []oss.ClientOption
	if cfg.SecurityToken != "" {
		opts = append(opts, oss.SecurityToken(cfg.SecurityToken))
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "oss.New")
	}
	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "client.Bucket")
	}
	return &OSSStorage{
		Bucket:     bkt,
		Endpoint:   cfg.Endpoint,
		BucketName: cfg.Bucket,
		PublicBase: strings.TrimRight(cfg.PublicBase, "/"),
		Prefix:     strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *OSSStorage) Upload(ctx context.Context, folder string, up Upload) (string, error) {
	key := GenerateUniqueFilename(folder, up.Filename)
	if s.Prefix != "" {
		key = s.Prefix + "/" + key
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if up.ContentType != "" {
		opts = append(opts, oss.ContentType(up.ContentType))
	}
	if err := s.Bucket.PutObject(key, bytes.NewReader(up.Data), opts...); err != nil {
		return "", errors.Wrapf(err, "oss put %s", key)
	}
	return s.PublicURL(key), nil
}

func (s *OSSStorage) Delete(ctx context.Context, publicURL string) error {
	key, err := s.keyFromURL(publicURL)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.Bucket.DeleteObject(key, oss.WithContext(ctx)), "oss delete %s", key)
}

func (s *OSSStorage) PublicURL(key string) string {
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func (s *OSSStorage) keyFromURL(publicURL string) (string, error) {
	if s.PublicBase != "" && strings.HasPrefix(publicURL, s.PublicBase+"/") {
		return strings.TrimPrefix(publicURL, s.PublicBase+"/"), nil
	}
	u := publicURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 && i+1 < len(u) {
		return u[i+1:], nil
	}
	return "", errors.Errorf("cannot extract key from url: %s", publicURL)
}
