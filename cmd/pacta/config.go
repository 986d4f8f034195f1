package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/pacta/internal/logger"
	"github.com/nkiryanov/pacta/internal/service/reminder"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMongo    = "mongo"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultEnvironment   = logger.EnvProduction
	defaultStorageDriver = StorageDriverPostgres
	defaultMongoDatabase = "pacta"
	defaultTimezone      = "Europe/Istanbul"
	defaultSchedule      = "0 9 * * *"
	defaultPushWorkers   = 8
	defaultS3Bucket      = "pacta-reminders"
	defaultS3Region      = "us-east-1"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Which store keeps users, debts and notifications: postgres or mongo
	StorageDriver string

	// Postgres connection string
	DatabaseDSN string

	MongoURI      string
	MongoDatabase string

	// IANA timezone of the civil day used for due reminders
	Timezone string

	// Cron spec of the daily reminder run, evaluated in Timezone
	ReminderSchedule string

	// Number of concurrent push deliveries during a reminder run
	PushWorkers int

	// Path to Firebase service account JSON. Pushes to devices are only logged when empty
	FirebaseCredentials string

	// Telegram bot token. Tokens with "telegram:" prefix are only logged when empty
	TelegramBotToken string

	// S3 compatible storage for run summaries. Archive is disabled when endpoint is empty
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	// Environment
	Environment string

	// Resolved by Validate
	location *time.Location
}

func NewConfig() *Config {
	return &Config{
		LogLevel:         defaultLoggingLevel,
		ListenAddr:       defaultListenAddr,
		StorageDriver:    defaultStorageDriver,
		MongoDatabase:    defaultMongoDatabase,
		Timezone:         defaultTimezone,
		ReminderSchedule: defaultSchedule,
		PushWorkers:      defaultPushWorkers,
		S3Bucket:         defaultS3Bucket,
		S3Region:         defaultS3Region,
		Environment:      defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"STORAGE_DRIVER":       setString(&c.StorageDriver),
		"MONGO_URI":            setString(&c.MongoURI),
		"MONGO_DATABASE":       setString(&c.MongoDatabase),
		"TIMEZONE":             setString(&c.Timezone),
		"REMINDER_SCHEDULE":    setString(&c.ReminderSchedule),
		"PUSH_WORKERS":         setInt(&c.PushWorkers),
		"FIREBASE_CREDENTIALS": setString(&c.FirebaseCredentials),
		"TELEGRAM_BOT_TOKEN":   setString(&c.TelegramBotToken),
		"S3_ENDPOINT":          setString(&c.S3Endpoint),
		"S3_ACCESS_KEY":        setString(&c.S3AccessKey),
		"S3_SECRET_KEY":        setString(&c.S3SecretKey),
		"S3_BUCKET":            setString(&c.S3Bucket),
		"S3_REGION":            setString(&c.S3Region),
		"S3_USE_SSL":           setBool(&c.S3UseSSL),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("pacta", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Postgres connection string")
	fs.StringVar(&c.StorageDriver, "storage", c.StorageDriver, "Storage driver (postgres, mongo)")
	fs.StringVar(&c.MongoURI, "mongo-uri", c.MongoURI, "MongoDB connection string")
	fs.StringVar(&c.MongoDatabase, "mongo-db", c.MongoDatabase, "MongoDB database name")
	fs.StringVarP(&c.Timezone, "timezone", "t", c.Timezone, "Timezone of the reminder day (IANA name)")
	fs.StringVar(&c.ReminderSchedule, "schedule", c.ReminderSchedule, "Cron spec of the reminder run")
	fs.IntVar(&c.PushWorkers, "push-workers", c.PushWorkers, "Concurrent push deliveries")
	fs.StringVar(&c.FirebaseCredentials, "firebase-credentials", c.FirebaseCredentials, "Firebase service account file")
	fs.StringVar(&c.TelegramBotToken, "telegram-token", c.TelegramBotToken, "Telegram bot token")
	fs.StringVar(&c.S3Endpoint, "s3-endpoint", c.S3Endpoint, "S3 endpoint for run summaries")
	fs.StringVar(&c.S3Bucket, "s3-bucket", c.S3Bucket, "S3 bucket for run summaries")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate checks options and resolves timezone. Any error here is fatal at startup
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("database uri is required for postgres storage")
		}
	case StorageDriverMongo:
		if c.MongoURI == "" {
			return errors.New("mongo uri is required for mongo storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	if _, err := reminder.ParseSchedule(c.ReminderSchedule); err != nil {
		return err
	}

	if c.PushWorkers < 1 {
		return fmt.Errorf("push workers must be positive, got %d", c.PushWorkers)
	}

	if c.S3Endpoint != "" && c.S3Bucket == "" {
		return errors.New("s3 bucket is required when s3 endpoint is set")
	}

	return nil
}

func (c *Config) Location() *time.Location {
	return c.location
}
