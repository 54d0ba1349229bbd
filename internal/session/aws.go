/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package session builds the shared AWS configuration used by the S3 content
// store and the DynamoDB index. It is resolved once per process and handed to
// the store constructors; nothing downstream touches credentials.
package session

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/friendsincode/moosic/internal/telemetry"
)

// Options selects region and, optionally, static credentials. When the keys
// are empty the default chain applies (env, shared profile, SSO, IMDS).
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadAWS resolves an aws.Config with traced HTTP transport.
func LoadAWS(ctx context.Context, opts Options) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithHTTPClient(telemetry.HTTPClient()),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
