package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"sorrel-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"120"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Entrez (NCBI E-utilities)
	EntrezBaseURL        string        `env:"ENTREZ_BASE_URL" env-default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	EntrezEmail          string        `env:"ENTREZ_EMAIL" env-default:""`
	EntrezAPIKey         string        `env:"ENTREZ_API_KEY" env-default:""`
	EntrezWorkers        int           `env:"ENTREZ_WORKERS" env-default:"4"`
	EntrezTimeout        time.Duration `env:"ENTREZ_TIMEOUT" env-default:"120s"`
	EntrezSearchBatch    int           `env:"ENTREZ_SEARCH_BATCH" env-default:"10000"`
	EntrezFetchBatch     int           `env:"ENTREZ_FETCH_BATCH" env-default:"200"`
	EntrezRatePerSecond  int           `env:"ENTREZ_RATE_PER_SECOND" env-default:"3"`
	EntrezRateKeyPrefix  string        `env:"ENTREZ_RATE_KEY_PREFIX" env-default:"sorrel:ratelimit:"`
	MetadataFetchRetries int           `env:"METADATA_FETCH_RETRIES" env-default:"1"`

	// SRA Toolkit downloads
	SraToolsPrefetchPath string        `env:"SRA_TOOLS_PREFETCH_PATH" env-default:"prefetch"`
	SraToolsFasterqPath  string        `env:"SRA_TOOLS_FASTERQ_PATH" env-default:"fasterq-dump"`
	SraToolsKeyFile      string        `env:"SRA_TOOLS_KEY_FILE" env-default:""`
	DownloadOutputDir    string        `env:"DOWNLOAD_OUTPUT_DIR" env-default:"downloads"`
	DownloadTempDir      string        `env:"DOWNLOAD_TEMP_DIR" env-default:""`
	DownloadThreads      int           `env:"DOWNLOAD_THREADS" env-default:"6"`
	DownloadRetries      int           `env:"DOWNLOAD_RETRIES" env-default:"2"`
	DownloadBackoffBase  time.Duration `env:"DOWNLOAD_BACKOFF_BASE" env-default:"180s"`

	// PostgreSQL (metadata cache)
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"sorrel"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Redis (Entrez rate limiting)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Graph Database (Memgraph) - optional lineage projection
	GraphEnabled    bool   `env:"GRAPH_ENABLED" env-default:"false"`
	GraphDBHost     string `env:"GRAPH_DB_HOST" env-default:"localhost"`
	GraphDBPort     int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser     string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword string `env:"GRAPH_DB_PASSWORD" env-default:""`

	// Kafka Producer (retrieval events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"true"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"retrieval-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`
}
