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

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	exporter "github.com/market-exporter/exporter"
	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exporter represents the CLI application, encapsulating the root Cobra command.
type Exporter struct {
	cmd *cobra.Command
}

// exporterInstance holds the export engine and its configuration for the commands.
type exporterInstance struct {
	exporter *exporter.Exporter
	cnf      *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the export engine before any command runs.
func preRun(app *exporterInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newExporter, err := exporter.NewFromConfig(context.Background(), cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.exporter = newExporter
		app.cnf = cnf
		return nil
	}
}

// NewCLI creates the command-line interface with the server, worker, migration and
// export commands.
func NewCLI() *Exporter {
	var configFile string
	e := &exporterInstance{}

	var rootCmd = &cobra.Command{
		Use:   "market-exporter",
		Short: "Marketplace catalog feed exporter",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./exporter.json", "Configuration file for the exporter")
	rootCmd.PersistentPreRunE = preRun(e, &configFile)

	rootCmd.AddCommand(serverCommands(e))
	rootCmd.AddCommand(workerCommands(e))
	rootCmd.AddCommand(migrateCommands(e))
	rootCmd.AddCommand(exportCommands(e))
	rootCmd.AddCommand(publishCommands(e))
	rootCmd.AddCommand(configCommands())

	return &Exporter{cmd: rootCmd}
}

func (w Exporter) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
