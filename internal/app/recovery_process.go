package app

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/rs/zerolog"
	"time"
)

type RecoveryHandler interface {
	Execute(ctx context.Context) error
}

// RecoveryProcess runs the recovery sweep on a fixed interval until ctx is done.
type RecoveryProcess struct {
	handler  RecoveryHandler
	interval time.Duration
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewRecoveryProcess(h RecoveryHandler, interval time.Duration) *RecoveryProcess {
	l := log.GetLogger()
	return &RecoveryProcess{handler: h, interval: interval, timeout: interval, logger: &l}
}

// Run runs the recovery process.
func (p *RecoveryProcess) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info().Msg("Recovery sweep disabled")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *RecoveryProcess) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.handler.Execute(runCtx); err != nil {
		p.logger.Error().Err(err).Msg(errors.ErrFailedReconcileTransactions)
	}
}
