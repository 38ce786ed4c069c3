package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lootlook/models"
)

func TestRetryControllerFirstAttemptSucceeds(t *testing.T) {
	rc := newRetryController(maxAttempts)
	resets := 0

	snapshot, err := rc.run(func(n int) (*models.ProductSnapshot, error) {
		return &models.ProductSnapshot{Price: 99.0, Currency: CurrencyUSD}, nil
	}, func() { resets++ })

	require.NoError(t, err)
	assert.Equal(t, 99.0, snapshot.Price)
	assert.Equal(t, 1, rc.attempts)
	assert.Equal(t, 0, resets, "reset must not run before the first attempt")
	assert.Equal(t, phaseSuccess, rc.phase)
}

func TestRetryControllerSecondAttemptSucceeds(t *testing.T) {
	rc := newRetryController(maxAttempts)
	resets := 0

	snapshot, err := rc.run(func(n int) (*models.ProductSnapshot, error) {
		if n == 1 {
			return nil, errNoPrice
		}
		return &models.ProductSnapshot{Price: 1299.0, Currency: CurrencyINR}, nil
	}, func() { resets++ })

	require.NoError(t, err)
	assert.Equal(t, 1299.0, snapshot.Price)
	assert.Equal(t, 2, rc.attempts)
	assert.Equal(t, 1, resets, "state must be cleared exactly once between attempts")
	assert.Equal(t, phaseSuccess, rc.phase)
}

func TestRetryControllerExhaustion(t *testing.T) {
	rc := newRetryController(maxAttempts)
	calls := 0

	snapshot, err := rc.run(func(n int) (*models.ProductSnapshot, error) {
		calls++
		return nil, errNoPrice
	}, nil)

	assert.Nil(t, snapshot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionExhausted))
	assert.Equal(t, maxAttempts, calls, "must attempt exactly %d times, no more", maxAttempts)
	assert.Equal(t, phaseExhausted, rc.phase)
}

func TestRetryControllerAttemptNumbers(t *testing.T) {
	rc := newRetryController(maxAttempts)
	var seen []int

	_, _ = rc.run(func(n int) (*models.ProductSnapshot, error) {
		seen = append(seen, n)
		return nil, errNoPrice
	}, nil)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestRetryControllerKeepsLastError(t *testing.T) {
	rc := newRetryController(maxAttempts)

	_, err := rc.run(func(n int) (*models.ProductSnapshot, error) {
		if n == 1 {
			return nil, errors.New("first failure")
		}
		return nil, errors.New("second failure")
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "second failure")
	assert.False(t, errors.Is(err, ErrBrowserLaunch), "exhaustion must stay distinct from launch failure")
}
