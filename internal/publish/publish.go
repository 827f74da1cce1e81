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

package publish

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/market-exporter/exporter/config"
	"github.com/sirupsen/logrus"
)

const maxUploadTime = 2 * time.Minute

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher copies published feeds to a bucket.
type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
	maxAge time.Duration
}

// NewS3Publisher returns nil when no bucket is configured.
func NewS3Publisher(ctx context.Context, cnf config.S3Config) (*S3Publisher, error) {
	if cnf.Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cnf.Region)}
	if cnf.AccessKeyId != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cnf.AccessKeyId, cnf.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if cnf.Endpoint != "" {
			o.BaseEndpoint = aws.String(cnf.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Publisher(client, cnf.Bucket, cnf.KeyPrefix), nil
}

func newS3Publisher(client objectPutter, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: prefix, maxAge: maxUploadTime}
}

// Key is the object key a local file is stored under.
func (p *S3Publisher) Key(filePath string) string {
	return path.Join(p.prefix, filepath.Base(filePath))
}

// Upload puts the file into the bucket, retrying transient failures with
// exponential backoff. It returns the object key.
func (p *S3Publisher) Upload(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	key := p.Key(filePath)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = p.maxAge

	attempt := 0
	operation := func() error {
		attempt++
		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/xml"),
		})
		if err != nil && errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "attempt": attempt}).Warnf("feed upload failed: %v", err)
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return key, nil
}
