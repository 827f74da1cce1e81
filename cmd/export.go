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
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

func exportCommands(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "run and control feed exports",
	}

	cmd.AddCommand(exportRunCommand(e))
	cmd.AddCommand(exportStepCommand(e))
	cmd.AddCommand(exportStopCommand(e))
	cmd.AddCommand(exportStatusCommand(e))

	return cmd
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.Fatalf("Error printing result: %v\n", err)
	}
	fmt.Println(string(data))
}

// exportRunCommand runs every step of a job in this process.
func exportRunCommand(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "export the whole catalog in the foreground",
		Run: func(cmd *cobra.Command, args []string) {
			result, err := e.exporter.Export(context.Background())
			if result != nil {
				printJSON(result)
			}
			if err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}

func exportStepCommand(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step [step] [total]",
		Short: "run a single export step",
		Args:  cobra.MaximumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			var step, total uint64
			var err error
			if len(args) > 0 {
				if step, err = strconv.ParseUint(args[0], 10, 32); err != nil {
					log.Fatalf("invalid step: %v", err)
				}
			}
			if len(args) > 1 {
				if total, err = strconv.ParseUint(args[1], 10, 32); err != nil {
					log.Fatalf("invalid total: %v", err)
				}
			}

			result, err := e.exporter.RunStep(context.Background(), uint(step), uint(total))
			if result != nil {
				printJSON(result)
			}
			if err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}

func exportStopCommand(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "cancel the running export",
		Run: func(cmd *cobra.Command, args []string) {
			state, err := e.exporter.Stop(context.Background())
			if err != nil {
				log.Fatal(err)
			}
			if state == nil {
				fmt.Println("no export is running")
				return
			}
			printJSON(state)
		},
	}

	return cmd
}

func exportStatusCommand(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "show the progress of the running export",
		Run: func(cmd *cobra.Command, args []string) {
			state, err := e.exporter.Status(context.Background())
			if err != nil {
				log.Fatal(err)
			}
			if state == nil {
				fmt.Println("no export is running")
				return
			}
			printJSON(state)
		},
	}

	return cmd
}
