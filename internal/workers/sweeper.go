// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/store"
)

type expirySweeper struct {
	messages   store.MessageRepository
	shareLinks store.ShareLinkRepository
	logger     *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExpirySweeper creates a sweeper that deletes expired messages and share
// links on a ticker. The sweeper is idle until Start is called.
func NewExpirySweeper(messages store.MessageRepository, shareLinks store.ShareLinkRepository, logger *logger.Logger) Worker {
	return &expirySweeper{
		messages:   messages,
		shareLinks: shareLinks,
		logger:     logger,
	}
}

// Start implements Worker. It stops any previously running sweep loop, then
// launches a background goroutine that sweeps every interval. If interval is
// zero or negative it defaults to 10 minutes. The goroutine exits when ctx is
// cancelled or Stop is called.
func (w *expirySweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				w.sweep(jobCtx)
			}
		}
	}()
}

// Stop implements Worker. It cancels the sweep goroutine's context and blocks
// until the goroutine has fully exited. Safe to call when the sweeper is not
// running (no-op in that case).
func (w *expirySweeper) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *expirySweeper) sweep(ctx context.Context) {
	now := time.Now()

	deletedMessages, err := w.messages.DeleteExpired(ctx, now)
	if err != nil {
		w.logger.Error().
			Str("func", "*expirySweeper.sweep").
			Err(err).
			Msg("error occurred deleting expired messages")
	}

	deletedLinks, err := w.shareLinks.DeleteExpired(ctx, now)
	if err != nil {
		w.logger.Error().
			Str("func", "*expirySweeper.sweep").
			Err(err).
			Msg("error occurred deleting expired share links")
	}

	if deletedMessages > 0 || deletedLinks > 0 {
		w.logger.Info().
			Str("func", "*expirySweeper.sweep").
			Int64("messages", deletedMessages).
			Int64("share_links", deletedLinks).
			Msg("expired rows swept")
	}
}
