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
	"errors"

	"github.com/market-exporter/exporter/internal/publish"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func publishCommands(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "copy the latest published feed to remote storage",
	}

	cmd.AddCommand(publishToS3Commands(e))

	return cmd
}

func publishToS3Commands(e *exporterInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use: "s3",
		Run: func(cmd *cobra.Command, args []string) {
			if err := publishLatest(cmd, e); err != nil {
				logrus.Error(err)
			}
		},
	}

	return cmd
}

func publishLatest(cmd *cobra.Command, e *exporterInstance) error {
	uploader, err := publish.NewS3Publisher(cmd.Context(), e.cnf.S3)
	if err != nil {
		return err
	}
	if uploader == nil {
		return errors.New("s3 bucket is not configured")
	}

	latest, err := e.exporter.Sink().Latest()
	if err != nil {
		return err
	}

	location, err := uploader.Upload(cmd.Context(), latest)
	if err != nil {
		return err
	}
	logrus.WithField("location", location).Info("feed uploaded")
	return nil
}
