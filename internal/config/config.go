package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Mongo    MongoConfig
	YouTube  YouTubeConfig
	Facebook FacebookConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	TestMode bool `envconfig:"TEST_MODE" default:"false"`
}

type ServerConfig struct {
	Port        int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	// Triggers run the workflow inside the request and an upload can take
	// minutes, so the write timeout is disabled by default.
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"0"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
}

type WorkerConfig struct {
	TempDir         string        `envconfig:"WORKER_TEMP_DIR" default:"/tmp/connector"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type MongoConfig struct {
	ConnectorURI       string        `envconfig:"CONNECTOR_MONGO_DB" default:"mongodb://localhost:27017"`
	AssetURI           string        `envconfig:"ASSET_MONGO_DB" default:"mongodb://localhost:27017"`
	ConnectorDB        string        `envconfig:"CONNECTOR_DB" default:"connectors"`
	RegistryCollection string        `envconfig:"CONNECTOR_REGISTRY" default:"registry"`
	MappingCollection  string        `envconfig:"CONNECTOR_MAPPINGS" default:"mappings"`
	AssetDB            string        `envconfig:"ASSET_DB" default:"contentdb"`
	AssetCollection    string        `envconfig:"ASSETS" default:"assets"`
	ConnectTimeout     time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type YouTubeConfig struct {
	ClientID           string `envconfig:"YOUTUBE_CLIENT_ID"`
	ClientSecret       string `envconfig:"YOUTUBE_CLIENT_SECRET"`
	TokenURI           string `envconfig:"YOUTUBE_TOKEN_URI" default:"https://accounts.google.com/o/oauth2/token"`
	ServiceAccountFile string `envconfig:"YOUTUBE_SERVICE_ACCOUNT_FILE" default:"config/client_secrets.json"`
	ClaimPolicyID      string `envconfig:"YOUTUBE_CLAIM_POLICY_ID"`
}

type FacebookConfig struct {
	GraphURL string `envconfig:"FACEBOOK_GRAPH_URL" default:"https://graph.facebook.com/v2.7/"`
}

type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Host      string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port      int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User      string `envconfig:"RABBITMQ_USER" default:"connector"`
	Password  string `envconfig:"RABBITMQ_PASSWORD" default:"connector"`
	VHost     string `envconfig:"RABBITMQ_VHOST" default:"/"`
	QueueName string `envconfig:"QUEUE_NAME" default:"connector_events"`
	Prefetch  int    `envconfig:"QUEUE_PREFETCH" default:"1"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
