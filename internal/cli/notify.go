package cli

import (
	"context"

	"kharcha/internal/ledger"
	"kharcha/internal/log"
)

// NewLogNotifier logs every committed ledger command at debug level.
func NewLogNotifier(logger *log.Logger) ledger.Notifier {
	logger = logger.WithComponent(log.ComponentLedger)
	return ledger.NotifierFunc(func(ctx context.Context, ev ledger.Event) {
		logger.DebugContext(ctx, "Ledger event",
			log.FieldOperation, ev.Op, "id", ev.ID, "at", ev.At)
	})
}
