package filevault

import (
	"context"
	"log/slog"
)

// NoopEventSink discards all events.
type NoopEventSink struct{}

// NewNoopEventSink creates an event sink that ignores every event.
func NewNoopEventSink() *NoopEventSink {
	return &NoopEventSink{}
}

func (NoopEventSink) UserRegistered(ctx context.Context, user *User) error { return nil }

func (NoopEventSink) EntryCreated(ctx context.Context, entry *FileEntry) error { return nil }

func (NoopEventSink) VariantRecorded(ctx context.Context, entry *FileEntry, width int, path string) error {
	return nil
}

// LogEventSink logs domain events through slog. The registration event
// stands in for the welcome email a mail provider would send.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink that logs every event.
func NewLogEventSink(logger *slog.Logger) *LogEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (s *LogEventSink) UserRegistered(ctx context.Context, user *User) error {
	s.logger.Info("welcome", "email", user.Email, "user_id", user.ID)
	return nil
}

func (s *LogEventSink) EntryCreated(ctx context.Context, entry *FileEntry) error {
	s.logger.Info("entry created", "entry_id", entry.ID, "kind", entry.Kind, "owner_id", entry.OwnerID)
	return nil
}

func (s *LogEventSink) VariantRecorded(ctx context.Context, entry *FileEntry, width int, path string) error {
	s.logger.Info("variant recorded", "entry_id", entry.ID, "width", width, "path", path)
	return nil
}
