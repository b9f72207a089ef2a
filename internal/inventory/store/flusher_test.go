package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingPersister struct {
	mu    sync.Mutex
	saves int
	last  *store.State
	err   error
}

func (p *countingPersister) Load(context.Context) (*store.State, error) {
	return store.NewSeededState(), nil
}

func (p *countingPersister) Save(_ context.Context, s *store.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.last = s
	return p.err
}

func (p *countingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func addItem(t *testing.T, s *store.Store, name string) {
	t.Helper()
	require.NoError(t, s.Update(func(st *store.State) error {
		st.Items = append(st.Items, &domain.Item{ID: st.AllocItemID(), Name: name})
		return nil
	}))
}

func TestFlusher_CoalescesBursts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := store.New(nil)
	p := &countingPersister{}
	f := store.NewFlusher(s, p, 50*time.Millisecond, logger.Nop())
	f.Start(context.Background())

	for i := 0; i < 10; i++ {
		addItem(t, s, "물건")
	}

	testutil.RequireEventually(t, func() bool { return p.count() == 1 }, 2*time.Second, "expected one save")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, p.count())
	assert.Len(t, p.last.Items, 10)
	assert.False(t, f.Pending())

	_, ok := f.LastSaved()
	assert.True(t, ok)
	require.NoError(t, f.Stop(context.Background()))
}

func TestFlusher_StopFlushesPendingChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := store.New(nil)
	p := &countingPersister{}
	f := store.NewFlusher(s, p, time.Hour, logger.Nop())
	f.Start(context.Background())

	addItem(t, s, "우유")
	require.NoError(t, f.Stop(context.Background()))

	assert.Equal(t, 1, p.count())
	assert.Len(t, p.last.Items, 1)
}

func TestFlusher_StopWithoutChangesDoesNotSave(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &countingPersister{}
	f := store.NewFlusher(store.New(nil), p, time.Hour, logger.Nop())
	f.Start(context.Background())
	require.NoError(t, f.Stop(context.Background()))

	assert.Zero(t, p.count())
}

func TestFlusher_FailedSaveStaysPending(t *testing.T) {
	s := store.New(nil)
	p := &countingPersister{err: errors.New("disk full")}
	f := store.NewFlusher(s, p, time.Hour, logger.Nop())

	addItem(t, s, "휴지")
	assert.Error(t, f.Flush(context.Background()))
	assert.True(t, f.Pending())

	p.err = nil
	require.NoError(t, f.Flush(context.Background()))
	assert.False(t, f.Pending())
}
