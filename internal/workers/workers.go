package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
)

// Worker is a background job with an explicit lifecycle.
type Worker interface {
	// Start launches the job loop. Calling Start on a running worker
	// restarts it with the new interval.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the job loop and waits for it to exit.
	Stop()
}

// Workers aggregates every background job behind a single constructor so the
// application wiring stays in one place.
type Workers struct {
	ExpirySweeper Worker
}

func NewWorkers(storages *store.Storages, logger *logger.Logger) *Workers {
	return &Workers{
		ExpirySweeper: NewExpirySweeper(storages.MessageRepository, storages.ShareLinkRepository, logger),
	}
}
