package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"
)

// EventPublisher announces records that reached the store.
type EventPublisher interface {
	PublishRecordAdded(ctx context.Context, kind core.Kind, r core.Record) error
}

// LedgerService reads and appends the income and expense collections and
// publishes a best-effort event for every stored record.
type LedgerService struct {
	stores    map[core.Kind]store.RecordStore
	publisher EventPublisher
	logger    *log.Logger
	closers   []io.Closer
}

// NewLedgerService wires the collections. publisher may be nil; closers
// are released by Close in order.
func NewLedgerService(stores map[core.Kind]store.RecordStore, publisher EventPublisher, logger *log.Logger, closers ...io.Closer) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		stores:    stores,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		closers:   closers,
	}
}

func (s *LedgerService) storeFor(kind core.Kind) (store.RecordStore, error) {
	st, ok := s.stores[kind]
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	return st, nil
}

// Records loads the full collection of kind.
func (s *LedgerService) Records(ctx context.Context, kind core.Kind) ([]core.Record, error) {
	st, err := s.storeFor(kind)
	if err != nil {
		return nil, err
	}
	records, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", kind, err)
	}
	return records, nil
}

// AddRecord parses and validates raw input, appends the record to its
// collection and publishes the event. Invalid input never reaches the store.
func (s *LedgerService) AddRecord(ctx context.Context, kind core.Kind, in core.RecordInput) (core.Record, error) {
	st, err := s.storeFor(kind)
	if err != nil {
		return core.Record{}, err
	}

	r, err := core.NewRecord(in)
	if err != nil {
		return core.Record{}, err
	}

	if err := store.Append(ctx, st, r); err != nil {
		return core.Record{}, fmt.Errorf("append %s record: %w", kind, err)
	}
	log.NewStructuredLogger(s.logger).LogRecordCreated(ctx, kind.String(), r.Date.String(), r.Category, r.Amount)

	if err := s.publish(ctx, kind, r); err != nil {
		// The record is stored; the event is best-effort.
		s.logger.ErrorContext(ctx, "Failed to publish record added event", "error", err, log.FieldKind, kind.String())
	}
	return r, nil
}

func (s *LedgerService) publish(ctx context.Context, kind core.Kind, r core.Record) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping record added event")
		return nil
	}
	return s.publisher.PublishRecordAdded(ctx, kind, r)
}

// Close releases the stores and the publisher connection.
func (s *LedgerService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
