package relq_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relqio/relq"
)

type fakeReclaimer struct {
	mu       sync.Mutex
	orphans  []*relq.Message[int]
	requeued []int
}

func (f *fakeReclaimer) Orphans(ctx context.Context, threshold time.Duration) ([]*relq.Message[int], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.orphans
	f.orphans = nil
	return out, nil
}

func (f *fakeReclaimer) RequeueSilent(ctx context.Context, msg *relq.Message[int]) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, msg.ID)
	return true, nil
}

func TestSweeper_ReclaimsOrphans(t *testing.T) {
	fake := &fakeReclaimer{
		orphans: []*relq.Message[int]{relq.NewMessage(1, []byte("a")), relq.NewMessage(2, []byte("b"))},
	}

	sweeper, err := relq.NewSweeper[int](fake, relq.WithSweepInterval[int](5*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.requeued) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSweeper_StartTwiceFails(t *testing.T) {
	sweeper, err := relq.NewSweeper[int](&fakeReclaimer{})
	require.NoError(t, err)

	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()

	err = sweeper.Start(context.Background())
	assert.Error(t, err)
}

func TestSweeper_StopWithoutStartFails(t *testing.T) {
	sweeper, err := relq.NewSweeper[int](&fakeReclaimer{})
	require.NoError(t, err)

	err = sweeper.Stop()
	assert.Error(t, err)
}

func TestNewSweeper_NilQueue(t *testing.T) {
	_, err := relq.NewSweeper[int](nil)
	assert.ErrorIs(t, err, relq.ErrRepositoryNil)
}
