package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMechanism = errors.New("mechanism failed")

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New("process", Settings{FailureThreshold: 3, Cooldown: time.Hour})

	for i := 0; i < 3; i++ {
		err := b.Execute(func() error { return errMechanism })
		require.ErrorIs(t, err, errMechanism)
	}

	assert.Equal(t, StateOpen, b.State())
	err := b.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := New("process", Settings{FailureThreshold: 2, Cooldown: time.Hour})

	b.Execute(func() error { return errMechanism })
	b.Execute(func() error { return nil })
	b.Execute(func() error { return errMechanism })

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	var transitions []State
	b := New("web", Settings{
		FailureThreshold: 1,
		Cooldown:         time.Millisecond,
		OnStateChange: func(_ string, _, to State) {
			transitions = append(transitions, to)
		},
	})

	b.Execute(func() error { return errMechanism })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	err := b.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("web", Settings{FailureThreshold: 1, Cooldown: time.Millisecond})

	b.Execute(func() error { return errMechanism })
	time.Sleep(5 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	b.Execute(func() error { return errMechanism })
	assert.Equal(t, StateOpen, b.State())
}
