package es

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/pkg/logger"
	"context"
	log "log/slog"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

var PostIndex = "inkwell_posts"

const (
	NotFoundCode = 404
	ConflictCode = 409
)

// InitClient 初始化 Elasticsearch 客户端
func InitClient(cfg config.ElasticConfig) (*elasticsearch.TypedClient, error) {
	if cfg.Indices.PostIndex != "" {
		PostIndex = cfg.Indices.PostIndex
	}

	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Addresses: []string{cfg.Address},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &logger.ESTransport{
			Transport: http.DefaultTransport,
		},
	})
	if err != nil {
		log.Error("Cannot Connect to Elasticsearch", "err", err)
		return nil, err
	}

	info, err := client.Info().Do(context.Background())
	if err != nil {
		log.Error("Cannot Connect to Elasticsearch", "err", err)
		return nil, err
	}

	log.Info("Connected to Elasticsearch", "version", info.Version.Int)
	return client, nil
}
