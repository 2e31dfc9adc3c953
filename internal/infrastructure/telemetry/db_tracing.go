package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin so every query becomes a child
// span of the request that issued it. Query variables never reach the spans.
func RegisterDBTracing(db *gorm.DB, dbSystem string, log *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}
	log.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	return nil
}
