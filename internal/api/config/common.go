package config

// Config 配置主体
type Config struct {
	Server            ServerConfig      `mapstructure:"server"`
	DB                DBConfig          `mapstructure:"database"`
	Redis             RedisConfig       `mapstructure:"redis"`
	MinIO             MinIOConfig       `mapstructure:"minio"`
	Elastic           ElasticConfig     `mapstructure:"elastic"`
	Mongo             MongoConfig       `mapstructure:"mongo"`
	Logstash          LogstashConfig    `mapstructure:"logstash"`
	Kafka             KafkaConfig       `mapstructure:"kafka"`
	KafkaPostConsumer KafkaPostConsumer `mapstructure:"kafka_post_consumer"`
	JWT               JWTConfig         `mapstructure:"jwt"`
	Cache             CacheConfig       `mapstructure:"cache"`
	Blog              BlogConfig        `mapstructure:"blog"`
	Cron              CronConfig        `mapstructure:"cron"`
	Admin             AdminConfig       `mapstructure:"admin"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	AllowOrigins   []string `mapstructure:"allow_origins"`
}

type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MinIOConfig 对象存储，正文图片与缩略图都落在 MainBucket
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	ExternalUseSSL   bool   `mapstructure:"external_use_ssl"`
	MaxUploadSize    int64  `mapstructure:"max_upload_size"`
	ThumbnailWidth   int    `mapstructure:"thumbnail_width"`
}

type ElasticConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Address  string         `mapstructure:"address"`
	Username string         `mapstructure:"username"`
	Password string         `mapstructure:"password"`
	Indices  ElasticIndices `mapstructure:"indices"`
}

type ElasticIndices struct {
	PostIndex string `mapstructure:"post_index"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
	Level   string `mapstructure:"level"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaPostConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Issuer     string `mapstructure:"issuer"`
	ExpireHour int    `mapstructure:"expire_hour"`
}

// CacheConfig Driver 取值 local / redis
type CacheConfig struct {
	Driver     string `mapstructure:"driver"`
	Size       int    `mapstructure:"size"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Prefix     string `mapstructure:"prefix"`
}

type BlogConfig struct {
	Title              string `mapstructure:"title"`
	PageSize           int    `mapstructure:"page_size"`
	CommentMaxLength   int    `mapstructure:"comment_max_length"`
	CommentIntervalSec int    `mapstructure:"comment_interval_sec"`
}

// CronConfig 定时任务表达式（带秒）
type CronConfig struct {
	CommentCount string `mapstructure:"comment_count"`
	PostView     string `mapstructure:"post_view"`
	RenderCache  string `mapstructure:"render_cache"`
}

// AdminConfig 首次启动时创建的管理员账号，已存在则跳过
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}
