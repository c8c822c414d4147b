package toolservice

import (
	"context"
	"log/slog"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
)

// Notifier is the minimal slice of MCP server-to-client notifications
// spec.md §4.K's watch integration needs: a single changed resource,
// a changed resource set, and a structured log line. It's kept
// narrower than the SDK's own session type so this package depends
// on the three notification shapes it actually sends, not the whole
// session surface — no example in the retrieval pack exercises the
// SDK's notification API, so isolating it behind this interface means
// a wrong guess at the real method names only costs one adapter.
type Notifier interface {
	ResourceUpdated(ctx context.Context, uri string) error
	ResourceListChanged(ctx context.Context) error
	LogMessage(ctx context.Context, logger, action, file string) error
}

// noopNotifier discards every notification, used before a client
// session exists (e.g. during initial indexing) and in tests that
// don't care about the MCP transport.
type noopNotifier struct{}

func (noopNotifier) ResourceUpdated(context.Context, string) error { return nil }
func (noopNotifier) ResourceListChanged(context.Context) error     { return nil }
func (noopNotifier) LogMessage(context.Context, string, string, string) error {
	return nil
}

// PumpNotifications drains sub and forwards each broadcast.Event to
// notifier as the file://<path> resource_updated, resource_list_changed
// and logging_message notifications spec.md §4.L's end-to-end scenarios
// describe, until ctx is done. Errors are logged, not returned: a
// client that's gone away or a transport hiccup shouldn't stop the
// indexer's own watch loop, which is the producer side of sub.
func PumpNotifications(ctx context.Context, sub *broadcast.Subscription, notifier Notifier, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			deliver(ctx, notifier, logger, ev)
		}
	}
}

func deliver(ctx context.Context, notifier Notifier, logger *slog.Logger, ev broadcast.Event) {
	switch ev.Kind {
	case broadcast.FileReindexed, broadcast.FileCreated:
		if err := notifier.ResourceUpdated(ctx, "file://"+ev.Path); err != nil {
			logger.Warn("resource_updated notification failed", "path", ev.Path, "err", err)
		}
		if err := notifier.LogMessage(ctx, "codanna", ev.Kind.String(), ev.Path); err != nil {
			logger.Warn("logging_message notification failed", "path", ev.Path, "err", err)
		}
	case broadcast.FileDeleted:
		if err := notifier.ResourceListChanged(ctx); err != nil {
			logger.Warn("resource_list_changed notification failed", "err", err)
		}
		if err := notifier.LogMessage(ctx, "codanna", ev.Kind.String(), ev.Path); err != nil {
			logger.Warn("logging_message notification failed", "path", ev.Path, "err", err)
		}
	case broadcast.IndexReloaded:
		if err := notifier.ResourceListChanged(ctx); err != nil {
			logger.Warn("resource_list_changed notification failed", "err", err)
		}
		if err := notifier.LogMessage(ctx, "codanna", ev.Kind.String(), ""); err != nil {
			logger.Warn("logging_message notification failed", "err", err)
		}
	}
}
