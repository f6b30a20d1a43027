// Package worker applies ledger events to a mirror of the collections.
package worker

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"
)

const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
)

// MirrorWorker appends every announced record to the mirror store of its
// collection. Redelivered messages are recognised by ID and skipped.
type MirrorWorker struct {
	mirrors map[core.Kind]store.RecordStore
	seen    *cache.SeenSet
	logger  *log.Logger
}

func NewMirrorWorker(mirrors map[core.Kind]store.RecordStore, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		mirrors: mirrors,
		seen:    cache.NewSeenSet(seenCapacity, seenTTL),
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordAdded implements amqp.Handler. Messages that can never be
// applied are rejected with amqp.ErrPermanent; store failures are retried.
func (w *MirrorWorker) HandleRecordAdded(ctx context.Context, msg *amqp.RecordAddedMessage) error {
	if msg.ID != "" && w.seen.Seen(msg.ID) {
		w.logger.InfoContext(ctx, "Skipping duplicate message", log.FieldMessageID, msg.ID)
		return nil
	}

	kind, r, err := msg.Record()
	if err != nil {
		return fmt.Errorf("decode record: %v: %w", err, amqp.ErrPermanent)
	}
	mirror, ok := w.mirrors[kind]
	if !ok || mirror == nil {
		return fmt.Errorf("no mirror for %s: %w", kind, amqp.ErrPermanent)
	}

	if err := store.Append(ctx, mirror, r); err != nil {
		return fmt.Errorf("mirror %s record: %w", kind, err)
	}
	if msg.ID != "" {
		w.seen.Mark(msg.ID)
	}

	w.logger.InfoContext(ctx, "Record mirrored",
		log.NewFields().
			WithRecord(kind.String(), r.Date.String(), r.Category, r.Amount).
			WithOperation(log.OpMirror).
			ToSlice()...)
	return nil
}
