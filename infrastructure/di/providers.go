package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/application/ports"
	"github.com/frankkinuthian/lms-v3/infrastructure/config"
	"github.com/frankkinuthian/lms-v3/infrastructure/messaging/eventbridge"
	"github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/auth"
	"github.com/frankkinuthian/lms-v3/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the metric emitter. A nil emitter is returned when
// metrics are disabled; all emit paths tolerate nil.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics(client, cfg.MetricsNamespace, logger)
}

// ProvideTracer creates the X-Ray tracer. A nil tracer disables tracing.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("lms-access-layer")
}

// ProvideExecutor creates the single-table executor.
func ProvideExecutor(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *dynamodb.Executor {
	retry := dynamodb.DefaultRetryConfig()
	retry.MaxAttempts = cfg.StoreMaxAttempts
	retry.BaseDelay = cfg.StoreBaseDelay
	retry.MaxDelay = cfg.StoreMaxDelay

	return dynamodb.NewExecutor(client, cfg.DynamoDBTable, cfg.IndexName, logger, metrics).
		WithRetryConfig(retry)
}

// ProvideStore exposes the executor through the application port.
func ProvideStore(executor *dynamodb.Executor) ports.Store {
	return executor
}

// ProvideEventPublisher creates an EventBridge-backed event publisher.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCatalogService creates the catalog application service.
func ProvideCatalogService(store ports.Store, events ports.EventPublisher, logger *zap.Logger) *catalog.Service {
	return catalog.NewService(store, events, logger)
}

// ProvideJWTValidator creates the token validator used by the HTTP surface.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}
