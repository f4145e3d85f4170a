// Package storage 媒体地址解析
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/d60-Lab/sakugabase/config"
)

// URLResolver 将对象 key 转为可访问的 URL
type URLResolver interface {
	Resolve(ctx context.Context, ref string) string
}

// MinioResolver 为对象 key 生成预签名 GET 地址。
// client 为空时退化为 /storage/{bucket}/{key} 的相对路径。
type MinioResolver struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioResolver 不发起网络请求；未配置 endpoint 时返回无客户端的 resolver
func NewMinioResolver(cfg config.StorageConfig) (*MinioResolver, error) {
	r := &MinioResolver{bucket: cfg.Bucket, expiry: cfg.URLExpiry}
	if r.expiry <= 0 {
		r.expiry = time.Hour
	}
	if cfg.Endpoint == "" {
		return r, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	r.client = client
	return r, nil
}

// Resolve 绝对地址原样返回；空值返回空串
func (r *MinioResolver) Resolve(ctx context.Context, ref string) string {
	if ref == "" || isAbsolute(ref) {
		return ref
	}
	key := strings.TrimPrefix(ref, "/")
	if r.client == nil {
		return "/storage/" + r.bucket + "/" + key
	}
	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, r.expiry, url.Values{})
	if err != nil {
		return "/storage/" + r.bucket + "/" + key
	}
	return u.String()
}

func isAbsolute(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != "" && u.Host != ""
}
