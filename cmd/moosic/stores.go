/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	"github.com/friendsincode/moosic/internal/config"
	"github.com/friendsincode/moosic/internal/db"
	"github.com/friendsincode/moosic/internal/index"
	"github.com/friendsincode/moosic/internal/session"
	"github.com/friendsincode/moosic/internal/storage"
)

func loadAWS(ctx context.Context) (aws.Config, error) {
	return session.LoadAWS(ctx, session.Options{
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
}

// openContentStore returns the configured object store.
func openContentStore(ctx context.Context) (storage.ObjectStore, error) {
	switch cfg.ContentBackend {
	case config.ContentFilesystem:
		return storage.NewFilesystemStore(cfg.MediaRoot, logger), nil
	case config.ContentS3:
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewS3Store(awsCfg, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported content backend %q", cfg.ContentBackend)
	}
}

// openIndexStore returns the configured index store. The caller closes it.
func openIndexStore(ctx context.Context) (index.Store, error) {
	switch cfg.IndexBackend {
	case config.IndexDynamoDB:
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, err
		}
		return index.NewDynamoStore(awsCfg, index.DynamoConfig{
			Table:    cfg.DynamoDBTable,
			Endpoint: cfg.DynamoDBEndpoint,
		}, logger), nil
	case config.IndexSQL:
		gdb, err := db.Connect(cfg.DBBackend, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		store, err := index.NewSQLStore(gdb, logger)
		if err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
		return store, nil
	case config.IndexRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return index.NewRedisStore(client, cfg.RedisPrefix, logger), nil
	case config.IndexBadger:
		store, err := index.OpenBadgerStore(cfg.BadgerPath, false, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported index backend %q", cfg.IndexBackend)
	}
}
