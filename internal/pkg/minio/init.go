package minio

import (
	"Inkwell/internal/api/config"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
	// MainBucket 正文图片与缩略图所在的存储桶
	MainBucket string

	publicEndpoint string
	publicSSL      bool
)

// 匿名用户只读，Markdown 中的图片链接可以直接访问
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Init 初始化 MinIO 客户端，存储桶不存在时创建并设置只读策略
func Init(cfg config.MinIOConfig) error {
	endpoint := cfg.InternalEndpoint
	useSSL := cfg.InternalUseSSL
	if endpoint == "" {
		endpoint = cfg.ExternalEndpoint
		useSSL = cfg.ExternalUseSSL
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MainBucket)
	if err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.MainBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		if err = client.SetBucketPolicy(ctx, cfg.MainBucket, fmt.Sprintf(publicReadPolicy, cfg.MainBucket)); err != nil {
			return fmt.Errorf("failed to set bucket policy: %w", err)
		}
		log.Info("MinIO bucket created", "bucket", cfg.MainBucket)
	}

	Client = client
	MainBucket = cfg.MainBucket
	publicEndpoint = cfg.ExternalEndpoint
	publicSSL = cfg.ExternalUseSSL
	if publicEndpoint == "" {
		publicEndpoint = endpoint
		publicSSL = useSSL
	}
	return nil
}
