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

package notification

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/market-exporter/exporter/config"
	"github.com/market-exporter/exporter/internal/request"
	"github.com/sirupsen/logrus"
)

// WebhookSender forwards an event to the configured webhook. The root package
// registers one at startup so this package does not import it.
type WebhookSender func(event string, payload interface{}) error

var (
	senderMu      sync.RWMutex
	webhookSender WebhookSender
)

func RegisterWebhookSender(sender WebhookSender) {
	senderMu.Lock()
	defer senderMu.Unlock()
	webhookSender = sender
}

func registeredSender() WebhookSender {
	senderMu.RLock()
	defer senderMu.RUnlock()
	return webhookSender
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(project string, err error, at time.Time) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("Error From %s", project), Emoji: true}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Error:*\n%v", err)}}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Time:*\n%v", at.Format(time.RFC822))}}},
	}}
}

// SlackNotification posts err to the configured Slack webhook.
func SlackNotification(ctx context.Context, conf *config.Configuration, systemError error) error {
	payload, err := request.ToJsonReq(slackPayload(conf.ProjectName, systemError, time.Now()))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.Notification.Slack.WebhookUrl, payload)
	if err != nil {
		return err
	}

	_, err = request.Call(req, nil)
	return err
}

// NotifyError logs systemError and, in the background, reports it to Slack and to
// the webhook as an "exporter.error" event when those are configured.
func NotifyError(systemError error) {
	logrus.Error(systemError)

	go func(systemError error) {
		conf, err := config.Fetch()
		if err != nil {
			logrus.Debug(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			ctx, cancel := context.WithTimeout(context.Background(), request.DefaultTimeout)
			defer cancel()
			if err := SlackNotification(ctx, conf, systemError); err != nil {
				logrus.Errorf("slack notification failed: %v", err)
			}
		}

		if sender := registeredSender(); sender != nil {
			payload := map[string]interface{}{
				"error": systemError.Error(),
				"time":  time.Now().UTC(),
			}
			if err := sender("exporter.error", payload); err != nil {
				logrus.Errorf("error webhook failed: %v", err)
			}
		}
	}(systemError)
}
