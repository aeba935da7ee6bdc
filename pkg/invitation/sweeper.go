// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"time"

	"github.com/canonical/organization-service/internal/logging"
)

// Sweep calls ExpireStale every interval until ctx is done.
func Sweep(ctx context.Context, service ServiceInterface, interval time.Duration, logger logging.LoggerInterface) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.ExpireStale(ctx); err != nil {
				logger.Errorf("invitation sweep failed: %v", err)
			}
		}
	}
}
