package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/logger"
)

// StartCategoryBackfill runs the uncategorized-product backfill on the given cron schedule.
// The caller stops the returned scheduler.
func StartCategoryBackfill(spec string, catalog *CatalogService, log *zap.Logger) (*cron.Cron, error) {
	log = logger.OrNop(log)

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := catalog.Backfill(context.Background(), false); err != nil {
			log.Error("scheduled category backfill failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule category backfill %q: %w", spec, err)
	}

	c.Start()
	log.Info("category backfill scheduled", zap.String("schedule", spec))
	return c, nil
}
