// Package aws contains AWS-specific configuration helpers for lambdahttp.
package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
)

// LoadSDKConfig loads the AWS SDK configuration from the environment.
// A non-empty region overrides the one resolved from the environment.
func LoadSDKConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsConfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsConfig.WithRegion(region))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS SDK configuration: %w", err)
	}

	return awsCfg, nil
}

// NormalizeWebSocketEndpoint strips protocol prefixes from WebSocket endpoint URLs.
// Accepts: https://example.com, http://example.com, wss://example.com, ws://example.com, example.com
// Returns: example.com (without protocol).
func NormalizeWebSocketEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "wss://")
	endpoint = strings.TrimPrefix(endpoint, "ws://")
	return strings.TrimSuffix(endpoint, "/")
}

// ManagementEndpoint returns the HTTPS endpoint of the API Gateway management API
// for a WebSocket API endpoint given in any of the forms NormalizeWebSocketEndpoint accepts.
func ManagementEndpoint(endpoint string) string {
	normalized := NormalizeWebSocketEndpoint(endpoint)
	if normalized == "" {
		return ""
	}
	return "https://" + normalized
}

// ManagementEndpointFor builds the management API endpoint from the domain name and stage
// found in a WebSocket request context.
func ManagementEndpointFor(domainName, stage string) string {
	domainName = NormalizeWebSocketEndpoint(domainName)
	if domainName == "" {
		return ""
	}
	if stage == "" || stage == "$default" {
		return "https://" + domainName
	}
	return "https://" + domainName + "/" + stage
}
