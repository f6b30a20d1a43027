package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"
	"bilancio/internal/store/memory"
)

type failingStore struct{}

func (failingStore) Load(context.Context) ([]core.Record, error) { return nil, errors.New("offline") }
func (failingStore) Save(context.Context, []core.Record) error   { return errors.New("offline") }

func record() core.Record {
	return core.Record{Date: core.NewDate(2024, 3, 1), Category: "Rent", Amount: decimal.NewFromInt(900), Description: "March"}
}

func newWorker() (*MirrorWorker, *memory.Store, *memory.Store) {
	income, expense := memory.New(), memory.New()
	w := NewMirrorWorker(map[core.Kind]store.RecordStore{
		core.KindIncome:  income,
		core.KindExpense: expense,
	}, log.Discard())
	return w, income, expense
}

func TestHandleRecordAdded(t *testing.T) {
	ctx := context.Background()
	w, income, expense := newWorker()

	msg := amqp.NewRecordAddedMessage(core.KindExpense, record())
	require.NoError(t, w.HandleRecordAdded(ctx, msg))

	got, _ := expense.Load(ctx)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(record()))
	assert.Equal(t, 0, income.Len())
}

func TestHandleRecordAddedSkipsRedelivery(t *testing.T) {
	ctx := context.Background()
	w, _, expense := newWorker()

	msg := amqp.NewRecordAddedMessage(core.KindExpense, record())
	require.NoError(t, w.HandleRecordAdded(ctx, msg))
	require.NoError(t, w.HandleRecordAdded(ctx, msg))
	assert.Equal(t, 1, expense.Len())

	// A distinct event for an identical record is a legitimate duplicate.
	require.NoError(t, w.HandleRecordAdded(ctx, amqp.NewRecordAddedMessage(core.KindExpense, record())))
	assert.Equal(t, 2, expense.Len())
}

func TestHandleRecordAddedInvalidMessage(t *testing.T) {
	w, _, _ := newWorker()
	msg := &amqp.RecordAddedMessage{ID: "x", Kind: "expense", Date: "2024-03-01", Category: "Rent", Amount: "abc"}
	err := w.HandleRecordAdded(context.Background(), msg)
	assert.ErrorIs(t, err, amqp.ErrPermanent)
	assert.ErrorContains(t, err, "invalid amount")
}

func TestHandleRecordAddedStoreFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(map[core.Kind]store.RecordStore{core.KindIncome: failingStore{}}, log.Discard())

	msg := amqp.NewRecordAddedMessage(core.KindIncome, record())
	err := w.HandleRecordAdded(ctx, msg)
	require.Error(t, err)
	assert.False(t, errors.Is(err, amqp.ErrPermanent))

	// A failed message is not remembered, so the retry is applied.
	assert.False(t, w.seen.Seen(msg.ID))
}

func TestHandleRecordAddedMissingMirror(t *testing.T) {
	w := NewMirrorWorker(map[core.Kind]store.RecordStore{}, log.Discard())
	err := w.HandleRecordAdded(context.Background(), amqp.NewRecordAddedMessage(core.KindIncome, record()))
	assert.ErrorIs(t, err, amqp.ErrPermanent)
}
