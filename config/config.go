/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT            = "5001"
	DEFAULT_MONITORING_PORT = "5004"
	DEFAULT_EXPORT_QUEUE    = "export_steps"
	DEFAULT_WEBHOOK_QUEUE   = "webhook_queue"
	DEFAULT_STORAGE_DIR     = "./exports"
	DEFAULT_FILE_NAME       = "ym-export.yml"
	DEFAULT_CATALOG_SOURCE  = "postgres"

	// MAX_STEP_DELAY_SEC keeps the next step well inside the five minute life of the
	// saved job state.
	MAX_STEP_DELAY_SEC = 240
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"EXPORTER_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"EXPORTER_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"EXPORTER_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"EXPORTER_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"EXPORTER_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"EXPORTER_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"EXPORTER_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"EXPORTER_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"EXPORTER_REDIS_SKIP_TLS_VERIFY"`
}

type QueueConfig struct {
	ExportQueue    string `json:"export_queue" envconfig:"EXPORTER_QUEUE_EXPORT"`
	WebhookQueue   string `json:"webhook_queue" envconfig:"EXPORTER_QUEUE_WEBHOOK"`
	StepDelaySec   int    `json:"step_delay_sec" envconfig:"EXPORTER_QUEUE_STEP_DELAY_SEC"`
	MonitoringPort string `json:"monitoring_port" envconfig:"EXPORTER_QUEUE_MONITORING_PORT"`
}

type StorageConfig struct {
	Dir      string `json:"dir" envconfig:"EXPORTER_STORAGE_DIR"`
	FileName string `json:"file_name" envconfig:"EXPORTER_STORAGE_FILE_NAME"`
	// New jobs are refused while the volume is fuller than this percentage. 0 disables the check.
	MaxUsagePercent float64 `json:"max_usage_percent" envconfig:"EXPORTER_STORAGE_MAX_USAGE_PERCENT"`
}

// S3Config enables uploading the published feed. Upload is off while Bucket is empty.
type S3Config struct {
	AccessKeyId     string `json:"access_key_id" envconfig:"EXPORTER_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" envconfig:"EXPORTER_S3_SECRET_ACCESS_KEY"`
	Bucket          string `json:"bucket" envconfig:"EXPORTER_S3_BUCKET"`
	Region          string `json:"region" envconfig:"EXPORTER_S3_REGION"`
	Endpoint        string `json:"endpoint" envconfig:"EXPORTER_S3_ENDPOINT"`
	KeyPrefix       string `json:"key_prefix" envconfig:"EXPORTER_S3_KEY_PREFIX"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers" envconfig:"EXPORTER_KAFKA_BROKERS"`
	Topic   string   `json:"topic" envconfig:"EXPORTER_KAFKA_TOPIC"`
}

type WooCommerceConfig struct {
	Url            string `json:"url" envconfig:"EXPORTER_WOOCOMMERCE_URL"`
	ConsumerKey    string `json:"consumer_key" envconfig:"EXPORTER_WOOCOMMERCE_KEY"`
	ConsumerSecret string `json:"consumer_secret" envconfig:"EXPORTER_WOOCOMMERCE_SECRET"`
}

// CatalogConfig selects where products are read from: the "postgres" catalog schema
// or a WooCommerce store over its REST API.
type CatalogConfig struct {
	Source      string            `json:"source" envconfig:"EXPORTER_CATALOG_SOURCE"`
	WooCommerce WooCommerceConfig `json:"woocommerce"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"EXPORTER_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"EXPORTER_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"EXPORTER_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"EXPORTER_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Queue        QueueConfig      `json:"queue"`
	Storage      StorageConfig    `json:"storage"`
	S3           S3Config         `json:"s3"`
	Kafka        KafkaConfig      `json:"kafka"`
	Catalog      CatalogConfig    `json:"catalog"`
	Shop         ShopConfig       `json:"shop"`
	Feed         FeedConfig       `json:"feed"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// .env values only fill variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	// override config from environment variables
	err = envconfig.Process("exporter", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called exporter.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Market Exporter"
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Catalog.Source = strings.ToLower(strings.TrimSpace(cnf.Catalog.Source))

	if cnf.Catalog.Source == "" {
		cnf.Catalog.Source = DEFAULT_CATALOG_SOURCE
	}

	switch cnf.Catalog.Source {
	case "postgres":
		if cnf.DataSource.Dns == "" {
			log.Println("Error: Data source DNS is empty. It's a required field.")
			return errors.New("data source DNS is required")
		}
	case "woocommerce":
		if cnf.Catalog.WooCommerce.Url == "" {
			return errors.New("woocommerce url is required when catalog source is woocommerce")
		}
	default:
		return errors.New("catalog source must be one of postgres, woocommerce")
	}

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.ExportQueue == "" {
		cnf.Queue.ExportQueue = DEFAULT_EXPORT_QUEUE
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DEFAULT_WEBHOOK_QUEUE
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DEFAULT_MONITORING_PORT
	}
	if cnf.Queue.StepDelaySec < 0 {
		cnf.Queue.StepDelaySec = 0
	}
	if cnf.Queue.StepDelaySec > MAX_STEP_DELAY_SEC {
		log.Printf("Warning: step delay of %ds outlives the job state. Setting step delay to %ds", cnf.Queue.StepDelaySec, MAX_STEP_DELAY_SEC)
		cnf.Queue.StepDelaySec = MAX_STEP_DELAY_SEC
	}

	if cnf.Storage.Dir == "" {
		cnf.Storage.Dir = DEFAULT_STORAGE_DIR
	}
	if cnf.Storage.FileName == "" {
		cnf.Storage.FileName = DEFAULT_FILE_NAME
	}
	if cnf.Storage.MaxUsagePercent < 0 || cnf.Storage.MaxUsagePercent > 100 {
		return errors.New("storage max_usage_percent must be between 0 and 100")
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	cnf.Shop.addDefaults()
	if err := cnf.Shop.Validate(); err != nil {
		return err
	}

	cnf.Feed.addDefaults()
	return cnf.Feed.Validate()
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
