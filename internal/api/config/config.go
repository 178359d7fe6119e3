package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 读取 ./configs/config.yaml，环境变量 INKWELL_* 覆盖同名配置
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("INKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg
	return nil
}

// SetDefaults 空配置文件也能启动
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1"})

	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 60)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("minio.main_bucket", "inkwell")
	v.SetDefault("minio.max_upload_size", 10<<20)
	v.SetDefault("minio.thumbnail_width", 480)

	v.SetDefault("elastic.indices.post_index", "inkwell_posts")

	v.SetDefault("mongo.database", "inkwell")

	v.SetDefault("logstash.index", "logstash-inkwell")
	v.SetDefault("logstash.level", "info")

	v.SetDefault("kafka.consumer.session_timeout", 30)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 10)
	v.SetDefault("kafka_post_consumer.topic", "canal_inkwell_posts")
	v.SetDefault("kafka_post_consumer.group_id", "inkwell-post-indexer")

	v.SetDefault("jwt.issuer", "Inkwell")
	v.SetDefault("jwt.expire_hour", 24)

	v.SetDefault("cache.driver", "local")
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl_seconds", 600)
	v.SetDefault("cache.prefix", "inkwell:cache:")

	v.SetDefault("blog.title", "Inkwell")
	v.SetDefault("blog.page_size", 10)
	v.SetDefault("blog.comment_max_length", 2000)
	v.SetDefault("blog.comment_interval_sec", 15)

	v.SetDefault("cron.comment_count", "0 */1 * * * *")
	v.SetDefault("cron.post_view", "30 */5 * * * *")
	v.SetDefault("cron.render_cache", "0 30 3 * * *")

	v.SetDefault("admin.username", "admin")
}
