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

package exporter

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/database"
	"github.com/market-exporter/exporter/internal/events"
	"github.com/market-exporter/exporter/internal/files"
	"github.com/market-exporter/exporter/internal/jobstate"
	"github.com/market-exporter/exporter/internal/notification"
	"github.com/market-exporter/exporter/internal/publish"
	redis_db "github.com/market-exporter/exporter/internal/redis-db"
	storagemonitor "github.com/market-exporter/exporter/internal/storage-monitor"
	"github.com/market-exporter/exporter/internal/woocommerce"
	"github.com/market-exporter/exporter/model"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("Export job")

// RunStore keeps the history of export runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.ExportRun) error
	GetLastRun(ctx context.Context) (*model.ExportRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]model.ExportRun, error)
}

// Scheduler asks for later steps. It must not block the running step.
type Scheduler interface {
	ScheduleNextStep(ctx context.Context, result *model.StepResult) error
	EnqueueStart(ctx context.Context) error
}

// Uploader copies a published feed somewhere outside the local disk.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// EventPublisher receives feed lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event string, data interface{}) error
}

// Dependencies are the collaborators of an Exporter. Catalog, Redis and Sink are
// required; the rest are optional.
type Dependencies struct {
	Catalog    database.ICatalog
	Runs       RunStore
	Redis      redis.UniversalClient
	Sink       *files.Sink
	Storage    *storagemonitor.Monitor
	Scheduler  Scheduler
	Uploader   Uploader
	Publishers []EventPublisher
}

// Exporter runs the step-wise catalog export.
type Exporter struct {
	shop       config.ShopConfig
	feed       config.FeedConfig
	catalog    database.ICatalog
	runs       RunStore
	redis      redis.UniversalClient
	state      *jobstate.Store
	sink       *files.Sink
	storage    *storagemonitor.Monitor
	builder    *OfferBuilder
	writer     *CatalogWriter
	scheduler  Scheduler
	uploader   Uploader
	publishers []EventPublisher
	now        func() time.Time
}

// NewExporter wires an Exporter from explicit dependencies.
//
// Parameters:
// - cnf *config.Configuration: Shop and feed settings are read from it.
// - deps Dependencies: The collaborators.
//
// Returns:
// - *Exporter: The exporter.
// - error: An error if a required dependency is missing.
func NewExporter(cnf *config.Configuration, deps Dependencies) (*Exporter, error) {
	if cnf == nil {
		return nil, errors.New("configuration is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog provider is required")
	}
	if deps.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("file sink is required")
	}

	return &Exporter{
		shop:       cnf.Shop,
		feed:       cnf.Feed,
		catalog:    deps.Catalog,
		runs:       deps.Runs,
		redis:      deps.Redis,
		state:      jobstate.NewStore(deps.Redis),
		sink:       deps.Sink,
		storage:    deps.Storage,
		builder:    NewOfferBuilder(cnf.Shop, cnf.Feed),
		writer:     NewCatalogWriter(cnf.Shop, cnf.Feed),
		scheduler:  deps.Scheduler,
		uploader:   deps.Uploader,
		publishers: deps.Publishers,
		now:        time.Now,
	}, nil
}

// NewFromConfig connects everything the configuration enables and returns an Exporter.
func NewFromConfig(ctx context.Context, cnf *config.Configuration) (*Exporter, error) {
	redisClient, err := redis_db.NewRedisClient([]string{cnf.Redis.Dns}, cnf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	deps := Dependencies{Redis: redisClient.Client()}

	if cnf.DataSource.Dns != "" {
		ds, err := database.NewDataSource(cnf)
		if err != nil {
			return nil, err
		}
		deps.Runs = ds
		deps.Catalog = ds
	}
	if cnf.Catalog.Source == "woocommerce" {
		client, err := woocommerce.NewClient(cnf.Catalog.WooCommerce)
		if err != nil {
			return nil, err
		}
		deps.Catalog = client
	}

	deps.Sink, err = files.NewSink(cnf.Storage.Dir, cnf.Storage.FileName)
	if err != nil {
		return nil, err
	}

	deps.Storage = storagemonitor.New(cnf.Storage.Dir, cnf.Storage.MaxUsagePercent)

	queue, err := NewQueue(cnf)
	if err != nil {
		return nil, err
	}
	deps.Scheduler = queue

	uploader, err := publish.NewS3Publisher(ctx, cnf.S3)
	if err != nil {
		return nil, err
	}
	if uploader != nil {
		deps.Uploader = uploader
	}

	if cnf.Notification.Webhook.Url != "" {
		deps.Publishers = append(deps.Publishers, WebhookPublisher{})
		notification.RegisterWebhookSender(func(event string, payload interface{}) error {
			return SendWebhook(NewWebhook{Event: event, Payload: payload})
		})
	}
	if kafka := events.NewKafkaPublisher(cnf.Kafka); kafka != nil {
		deps.Publishers = append(deps.Publishers, kafka)
	}

	logrus.WithFields(logrus.Fields{
		"catalog":    cnf.Catalog.Source,
		"storage":    cnf.Storage.Dir,
		"s3":         deps.Uploader != nil,
		"publishers": len(deps.Publishers),
	}).Info("exporter initialized")

	return NewExporter(cnf, deps)
}

// SetPriceFilter installs a hook applied to regular prices.
func (e *Exporter) SetPriceFilter(filter PriceFilter) {
	e.builder.SetPriceFilter(filter)
}

// Runs returns the run history store, which may be nil.
func (e *Exporter) Runs() RunStore {
	return e.runs
}

// Sink returns the file sink feeds are written to.
func (e *Exporter) Sink() *files.Sink {
	return e.sink
}
