package usecase

import (
	"context"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	applogger "DeskPortal/pkg/logger"
)

// emit hands e to sink. A rejected event never fails the operation that
// produced it.
func emit(ctx context.Context, sink domrepo.EventSink, l *applogger.Logger, e models.DeskEvent) {
	if sink == nil {
		return
	}
	if err := sink.Emit(ctx, e); err != nil && l != nil {
		l.Warn("desk event not queued",
			applogger.String("type", string(e.Type)),
			applogger.String("subject", e.Subject),
			applogger.Error(err),
		)
	}
}
