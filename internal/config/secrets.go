package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	errLoadAWSConfig           = "failed to load AWS config: %w"
	errGetSecretFromAWSSecrets = "failed to get secret from AWS Secrets Manager: %w"
	errParseSecretJSON         = "failed to parse secret JSON: %w"
	errParseSecretBinary       = "failed to parse secret binary: %w"
	errNoSecretDataFound       = "no secret data found in AWS Secrets Manager"
)

// SecretsOverlay represents the structure of secrets stored in AWS Secrets Manager
type SecretsOverlay struct {
	DatabasePassword string `json:"database_password"`
	TiingoAPIKey     string `json:"tiingo_api_key"`
}

// SecretsClient is the subset of the Secrets Manager API used here
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func newSecretsClient(ctx context.Context, region string) (SecretsClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf(errLoadAWSConfig, err)
	}
	return secretsmanager.NewFromConfig(awsCfg), nil
}

func fetchSecrets(ctx context.Context, client SecretsClient, secretName string) (*SecretsOverlay, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf(errGetSecretFromAWSSecrets, err)
	}
	return parseSecretData(result)
}

func parseSecretData(result *secretsmanager.GetSecretValueOutput) (*SecretsOverlay, error) {
	var secrets SecretsOverlay
	switch {
	case result.SecretString != nil:
		if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretJSON, err)
		}
	case result.SecretBinary != nil:
		if err := json.Unmarshal(result.SecretBinary, &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretBinary, err)
		}
	default:
		return nil, fmt.Errorf(errNoSecretDataFound)
	}
	return &secrets, nil
}

func overlaySecretsOnConfig(cfg *Config, secrets *SecretsOverlay) {
	if secrets.DatabasePassword != "" {
		cfg.Database.Password = secrets.DatabasePassword
	}
	if secrets.TiingoAPIKey != "" {
		cfg.Data.TiingoAPIKey = secrets.TiingoAPIKey
	}
}

// LoadSecretsFromAWS retrieves secrets from AWS Secrets Manager and overlays them onto the configuration
func LoadSecretsFromAWS(ctx context.Context, cfg *Config, region, secretName string) error {
	client, err := newSecretsClient(ctx, region)
	if err != nil {
		return err
	}
	return LoadSecrets(ctx, client, cfg, secretName)
}

// LoadSecrets overlays secrets fetched through client onto cfg
func LoadSecrets(ctx context.Context, client SecretsClient, cfg *Config, secretName string) error {
	secrets, err := fetchSecrets(ctx, client, secretName)
	if err != nil {
		return err
	}
	overlaySecretsOnConfig(cfg, secrets)
	return nil
}

// ApplySecretsFromEnv runs the AWS overlay when AWS_SECRETS_ENABLED=true.
// Region and secret name come from AWS_REGION and WEALTH_OPS_SECRET_NAME.
func ApplySecretsFromEnv(ctx context.Context, cfg *Config) error {
	if os.Getenv("AWS_SECRETS_ENABLED") != "true" {
		return nil
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	secretName := os.Getenv(EnvPrefix + "_SECRET_NAME")
	if secretName == "" {
		secretName = "wealth-ops/config"
	}
	return LoadSecretsFromAWS(ctx, cfg, region, secretName)
}
