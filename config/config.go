package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Port     string `envconfig:"PORT"`
		Host     string `envconfig:"HOST"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME"`
		Timezone string `envconfig:"TIMEZONE"`
		CORS     struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool `envconfig:"ENABLE"`
			MaxRequests   int  `envconfig:"MAX_REQUESTS"`
			WindowSeconds int  `envconfig:"WINDOW_SECONDS"`
		} `envconfig:"RATE_LIMITER"`
		APIKey string `envconfig:"API_KEY"`
	} `envconfig:"APP"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret  string `envconfig:"ACCESS_SECRET"`
		Issuer        string `envconfig:"ISSUER"`
		LeewaySeconds int    `envconfig:"LEEWAY_SECONDS" default:"30"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry       int              `envconfig:"MAX_RETRY"        default:"3"`
			RetryWaitTime  int              `envconfig:"RETRY_WAIT_TIME"  default:"2"`
			MaxOpenConns   int              `envconfig:"MAX_OPEN_CONNS"   default:"10"`
			MaxIdleConns   int              `envconfig:"MAX_IDLE_CONNS"   default:"10"`
			MigrationTable string           `envconfig:"MIGRATION_TABLE"`
			AutoMigrate    bool             `envconfig:"AUTO_MIGRATE"`
			Prefix         string           `envconfig:"PREFIX"`
			Read           PostgresEndpoint `envconfig:"READ"`
			Write          PostgresEndpoint `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Brokers       []string `envconfig:"BROKERS"`
		ConsumerGroup string   `envconfig:"CONSUMER_GROUP"`
		SASL          struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
	} `envconfig:"KAFKA"`

	RabbitMQ struct {
		URL      string `envconfig:"URL"`
		Exchange string `envconfig:"EXCHANGE" default:"rental.events"`
		Queue    string `envconfig:"QUEUE"    default:"rental.scheduler"`
	} `envconfig:"RABBITMQ"`

	Event struct {
		// Broker is one of kafka, rabbitmq. Empty disables publishing and consuming.
		Broker string `envconfig:"BROKER"`
		Topics struct {
			BookingStatus string `envconfig:"BOOKING_STATUS" default:"booking.status_changed"`
			PaymentStatus string `envconfig:"PAYMENT_STATUS" default:"payment.status_changed"`
		} `envconfig:"TOPICS"`
	} `envconfig:"EVENT"`

	Scheduler struct {
		MaxRangeDays            int    `envconfig:"MAX_RANGE_DAYS"             default:"90"`
		DefaultAvailabilityDays int    `envconfig:"DEFAULT_AVAILABILITY_DAYS"  default:"30"`
		MinRejectReasonLength   int    `envconfig:"MIN_REJECT_REASON_LENGTH"   default:"3"`
		DefaultBlockNote        string `envconfig:"DEFAULT_BLOCK_NOTE"         default:"vehicle under repair"`
		LockTTLSeconds          int    `envconfig:"LOCK_TTL_SECONDS"           default:"10"`
		LockWaitMillis          int    `envconfig:"LOCK_WAIT_MILLIS"           default:"3000"`
		BlockConcurrency        int    `envconfig:"BLOCK_CONCURRENCY"          default:"4"`
	} `envconfig:"SCHEDULER"`

	Payment struct {
		ProofDirectory string `envconfig:"PROOF_DIRECTORY" default:"payment-proofs"`
	} `envconfig:"PAYMENT"`

	External struct {
		Otel struct {
			Endpoint    string  `envconfig:"ENDPOINT"`
			Insecure    bool    `envconfig:"INSECURE"     default:"true"`
			SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1"`
		} `envconfig:"OTEL"`
		S3 struct {
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
			BucketName      string `envconfig:"BUCKET_NAME"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
		} `envconfig:"S3"`
	} `envconfig:"EXTERNAL"`
}

// PostgresEndpoint is one side of the read/write database split.
type PostgresEndpoint struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Username string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`
	Timezone string `envconfig:"TIMEZONE"`
	SSLMode  string `envconfig:"SSL_MODE"`
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		if loadErr := godotenv.Load(".env"); loadErr != nil {
			log.Warn().Err(loadErr).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Info().Msg("Successfully loaded variables from .env file into environment")
		}

		if err = envconfig.Process("", &conf); err != nil {
			return
		}

		initialized = true

		log.Info().Msg("Service configuration initialized successfully")
	})

	if err != nil {
		return fmt.Errorf("processing environment variables: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize configuration")
		}
	}

	return &conf
}
