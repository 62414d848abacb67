package di

import (
	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/application/catalog"
	"github.com/frankkinuthian/lms-v3/application/ports"
	"github.com/frankkinuthian/lms-v3/infrastructure/config"
	"github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/auth"
	"github.com/frankkinuthian/lms-v3/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Executor     *dynamodb.Executor
	Store        ports.Store
	Events       ports.EventPublisher
	Catalog      *catalog.Service
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
	JWTValidator *auth.JWTValidator
}
