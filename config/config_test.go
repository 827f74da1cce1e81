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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
		Shop: ShopConfig{Currency: "RUB"},
	}

	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "data source DNS is required" {
		t.Errorf("Expected data source DNS required error, got %v", err)
	}
	cnf = Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "postgres://localhost:5432",
		},
		Redis: RedisConfig{
			Dns: "",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "redis DNS is required" {
		t.Errorf("Expected redis DNS required error, got %v", err)
	}
	// Test case with all required fields filled, expect no error
	cnf = Configuration{
		ProjectName: "Test Project",
		DataSource: DataSourceConfig{
			Dns: "some-dns",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
		Shop: ShopConfig{Currency: "rub"},
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Test default port setting
	cnf.Server.Port = ""
	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cnf.Server.Port != DEFAULT_PORT {
		t.Errorf("Expected default port %s, got %s", DEFAULT_PORT, cnf.Server.Port)
	}

	assert.Equal(t, "RUB", cnf.Shop.Currency)
	assert.Equal(t, DEFAULT_EXPORT_QUEUE, cnf.Queue.ExportQueue)
	assert.Equal(t, DEFAULT_FILE_NAME, cnf.Storage.FileName)
	assert.Equal(t, "postgres", cnf.Catalog.Source)
}

func TestValidateAndAddDefaults_CatalogSource(t *testing.T) {
	cnf := Configuration{
		Redis:   RedisConfig{Dns: "localhost:6379"},
		Catalog: CatalogConfig{Source: "WooCommerce"},
		Shop:    ShopConfig{Currency: "UAH"},
	}
	err := cnf.validateAndAddDefaults()
	assert.EqualError(t, err, "woocommerce url is required when catalog source is woocommerce")

	cnf.Catalog.WooCommerce.Url = "https://shop.example.com"
	assert.NoError(t, cnf.validateAndAddDefaults())

	cnf.Catalog.Source = "mongo"
	assert.Error(t, cnf.validateAndAddDefaults())
}

func TestValidateAndAddDefaults_StepDelay(t *testing.T) {
	tests := []struct {
		name  string
		delay int
		want  int
	}{
		{name: "negative", delay: -5, want: 0},
		{name: "in range", delay: 30, want: 30},
		{name: "at limit", delay: MAX_STEP_DELAY_SEC, want: MAX_STEP_DELAY_SEC},
		{name: "outlives the job state", delay: 600, want: MAX_STEP_DELAY_SEC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cnf := Configuration{
				DataSource: DataSourceConfig{Dns: "postgres://localhost:5432"},
				Redis:      RedisConfig{Dns: "localhost:6379"},
				Queue:      QueueConfig{StepDelaySec: tt.delay},
				Shop:       ShopConfig{Currency: "RUB"},
			}
			require.NoError(t, cnf.validateAndAddDefaults())
			assert.Equal(t, tt.want, cnf.Queue.StepDelaySec)
		})
	}
}

func TestValidateAndAddDefaults_ShopCurrencyRequired(t *testing.T) {
	cnf := Configuration{
		DataSource: DataSourceConfig{Dns: "some-dns"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
	}
	assert.Error(t, cnf.validateAndAddDefaults())
}

func TestFeedDefaults(t *testing.T) {
	feed := DefaultFeedConfig()

	assert.Equal(t, DEFAULT_IMAGE_COUNT, feed.Offer.ImageCount)
	assert.Equal(t, DEFAULT_IMAGE_MARKER, feed.Offer.Marker())
	assert.Equal(t, Disabled, feed.Offer.Vendor)
	assert.False(t, feed.Offer.Model.Enabled())
	assert.Equal(t, Disabled, feed.Delivery.Store)
	assert.Equal(t, DescriptionDefault, feed.Misc.Description)
	assert.Equal(t, CronDisabled, feed.Misc.Cron)
	assert.NoError(t, feed.Validate())
}

func TestFeedValidate(t *testing.T) {
	feed := DefaultFeedConfig()
	feed.Offer.ImageCount = 11
	assert.Error(t, feed.Validate())

	feed = DefaultFeedConfig()
	feed.Misc.Description = "medium"
	assert.Error(t, feed.Validate())

	feed = DefaultFeedConfig()
	feed.Misc.Cron = "weekly"
	assert.Error(t, feed.Validate())
}

func TestOfferSettings(t *testing.T) {
	empty := ""
	offer := OfferSettings{ImageMarker: &empty, ExcludeIDs: []int64{10, 20}}

	assert.Equal(t, "", offer.Marker())
	assert.True(t, offer.Excluded(20))
	assert.False(t, offer.Excluded(30))
	assert.True(t, Option("pa_brand").Enabled())
	assert.False(t, Option("disabled").Enabled())
}

func TestLoadConfigFromFile(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "exporter.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up after the test

	// Sample configuration to write to the temp file
	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		DataSource: DataSourceConfig{
			Dns: "temp-dns",
		},
		Redis: RedisConfig{
			Dns: "temp-redis",
		},
		Shop: ShopConfig{Name: "Temp Shop", Currency: "RUB"},
	}
	sampleConfig.Feed.Offer.Vendor = "pa_brand"
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close() // Close the file so loadConfigFromFile can open it

	// Set environment variables to override values from the file
	t.Setenv("EXPORTER_PROJECT_NAME", "Env Project")
	t.Setenv("EXPORTER_SHOP_CURRENCY", "BYR")

	// Load the configuration from the file
	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("loadConfigFromFile failed: %v", err)
	}

	// Fetch the loaded configuration
	loadedConfig, err := Fetch()
	require.NoError(t, err)

	// Check if the environment variable override worked
	if loadedConfig.ProjectName != "Env Project" {
		t.Errorf("Expected ProjectName to be 'Env Project', got '%s'", loadedConfig.ProjectName)
	}
	assert.Equal(t, "BYR", loadedConfig.Shop.Currency)

	// Check if values were loaded correctly from the file
	if loadedConfig.DataSource.Dns != "temp-dns" {
		t.Errorf("Expected DataSource.Dns to be 'temp-dns', got '%s'", loadedConfig.DataSource.Dns)
	}
	assert.Equal(t, Option("pa_brand"), loadedConfig.Feed.Offer.Vendor)
	assert.Equal(t, Disabled, loadedConfig.Feed.Offer.Model)
}

func TestInitConfig(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "exporter.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up after the test

	// Sample configuration to write to the temp file
	sampleConfig := Configuration{
		ProjectName: "InitConfig Test",
		DataSource: DataSourceConfig{
			Dns: "init-config-dns",
		}, Redis: RedisConfig{
			Dns: "localhost:6379",
		},
		Shop: ShopConfig{Currency: "USD"},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close() // Close the file so InitConfig can open it

	// Attempt to initialize the configuration using the temporary file
	if err := InitConfig(tmpFile.Name()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	// Fetch the loaded configuration to verify it was loaded correctly
	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Verify the configuration was loaded correctly
	if loadedConfig.ProjectName != "InitConfig Test" {
		t.Errorf("Expected ProjectName to be 'InitConfig Test', got '%s'", loadedConfig.ProjectName)
	}
	if loadedConfig.DataSource.Dns != "init-config-dns" {
		t.Errorf("Expected DataSource.Dns to be 'init-config-dns', got '%s'", loadedConfig.DataSource.Dns)
	}
}
