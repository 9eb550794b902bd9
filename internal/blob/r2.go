// Motion Productions - Procedural Video Learning Loop
// Copyright 2026 Motion Productions contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motionprod/motion-productions

package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sony/gobreaker/v2"

	"github.com/motionprod/motion-productions/internal/logging"
)

// R2Store is an S3-compatible client for Cloudflare R2. Calls run through a
// circuit breaker so a degraded bucket fails fast instead of stalling the
// upload/download handlers.
type R2Store struct {
	client  *s3.Client
	bucket  string
	breaker *gobreaker.CircuitBreaker[*Object]
}

// R2Config carries bucket credentials. The endpoint is derived from the
// account ID: https://<accountID>.r2.cloudflarestorage.com, region "auto".
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewR2Store creates an R2-backed blob store.
func NewR2Store(cfg R2Config) (*R2Store, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("r2: account_id, access_key_id, secret_access_key, and bucket are required")
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg := aws.Config{
		Region: "auto",
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	breaker := gobreaker.NewCircuitBreaker[*Object](gobreaker.Settings{
		Name:    "r2-blob-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Blob store circuit breaker state change")
		},
	})

	return &R2Store{client: client, bucket: cfg.Bucket, breaker: breaker}, nil
}

// Put uploads data under key.
func (s *R2Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.breaker.Execute(func() (*Object, error) {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("r2 put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at key, or ErrNotFound.
func (s *R2Store) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := s.breaker.Execute(func() (*Object, error) {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			if errors.As(err, &noKey) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		defer func() {
			if cerr := out.Body.Close(); cerr != nil {
				logging.Warn().Err(cerr).Str("key", key).Msg("Failed to close blob body")
			}
		}()

		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, err
		}
		ct := "application/octet-stream"
		if out.ContentType != nil {
			ct = *out.ContentType
		}
		return &Object{Data: data, ContentType: ct, Size: int64(len(data))}, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("r2 get %s: %w", key, err)
	}
	return obj, nil
}
