package weather

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Lookup(ctx context.Context, place string) (*Current, error) {
	args := m.Called(ctx, place)
	current, _ := args.Get(0).(*Current)
	return current, args.Error(1)
}

type countingService struct {
	calls atomic.Int32
	err   error
}

func (s *countingService) Lookup(_ context.Context, place string) (*Current, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &Current{Location: place, TemperatureF: 70, Condition: "Sunny"}, nil
}

func TestCachedService_HitAvoidsProvider(t *testing.T) {
	upstream := &countingService{}
	cached := NewCachedService(upstream, 0, 0)

	first, err := cached.Lookup(context.Background(), "Paris")
	require.NoError(t, err)
	second, err := cached.Lookup(context.Background(), "  paris ")
	require.NoError(t, err)

	assert.EqualValues(t, 1, upstream.calls.Load())
	assert.Equal(t, first.Location, second.Location)

	hits, misses := cached.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestCachedService_ReturnsCopies(t *testing.T) {
	cached := NewCachedService(&countingService{}, 4, time.Minute)

	first, err := cached.Lookup(context.Background(), "Paris")
	require.NoError(t, err)
	first.Condition = "mutated"

	second, err := cached.Lookup(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Sunny", second.Condition)
}

func TestCachedService_ErrorsAreNotCached(t *testing.T) {
	upstream := &countingService{err: errors.New("down")}
	cached := NewCachedService(upstream, 4, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cached.Lookup(context.Background(), "Paris")
		assert.Error(t, err)
	}
	assert.EqualValues(t, 2, upstream.calls.Load())
}

func TestCachedService_Expiry(t *testing.T) {
	upstream := &countingService{}
	cached := NewCachedService(upstream, 4, 20*time.Millisecond)

	_, err := cached.Lookup(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := cached.Lookup(context.Background(), "Paris")
		return err == nil && upstream.calls.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestCachedService_ForwardsOriginalPlace(t *testing.T) {
	upstream := &mockService{}
	upstream.On("Lookup", mock.Anything, "New  York").
		Return(&Current{Location: "New York", TemperatureF: 55}, nil).Once()
	upstream.On("Lookup", mock.Anything, "London").
		Return(nil, ErrLocationNotFound).Once()
	cached := NewCachedService(upstream, 4, time.Minute)

	current, err := cached.Lookup(context.Background(), "New  York")
	require.NoError(t, err)
	assert.Equal(t, "New York", current.Location)

	current, err = cached.Lookup(context.Background(), "new york")
	require.NoError(t, err)
	assert.Equal(t, 55.0, current.TemperatureF)

	_, err = cached.Lookup(context.Background(), "London")
	assert.ErrorIs(t, err, ErrLocationNotFound)

	upstream.AssertExpectations(t)
}
