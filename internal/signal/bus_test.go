package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(Click)
	var got []string
	_, err := bus.Subscribe(Click, func(Event) { got = append(got, "first") })
	require.NoError(t, err)
	_, err = bus.Subscribe(Click, func(Event) { got = append(got, "second") })
	require.NoError(t, err)

	bus.Publish(Event{Kind: Click})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBusRejectsUndeclaredKind(t *testing.T) {
	bus := NewBus(Click)
	sub, err := bus.Subscribe(TouchStart, func(Event) {})
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, bus.Supports(TouchStart))
	assert.True(t, bus.Supports(Click))
}

func TestBusRejectsNilHandler(t *testing.T) {
	bus := NewBus(Click)
	_, err := bus.Subscribe(Click, nil)
	assert.Error(t, err)
}

func TestBusUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus(Copy)
	calls := 0
	sub, err := bus.Subscribe(Copy, func(Event) { calls++ })
	require.NoError(t, err)
	other, err := bus.Subscribe(Copy, func(Event) {})
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()
	bus.Publish(Event{Kind: Copy})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, bus.Subscribers(Copy))
	other.Unsubscribe()
	assert.Equal(t, 0, bus.Subscribers(Copy))
}

func TestBusHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus(Blur)
	calls := 0
	var sub Subscription
	sub, err := bus.Subscribe(Blur, func(Event) {
		calls++
		sub.Unsubscribe()
	})
	require.NoError(t, err)

	bus.Publish(Event{Kind: Blur})
	bus.Publish(Event{Kind: Blur})

	assert.Equal(t, 1, calls)
}

func TestBusIgnoresOtherKinds(t *testing.T) {
	bus := NewBus(Copy, Paste)
	var kinds []Kind
	_, err := bus.Subscribe(Paste, func(ev Event) { kinds = append(kinds, ev.Kind) })
	require.NoError(t, err)

	bus.Publish(Event{Kind: Copy})
	bus.Publish(Event{Kind: Paste})

	assert.Equal(t, []Kind{Paste}, kinds)
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, k := range AllKinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("double-click")
	assert.Error(t, err)
	assert.Equal(t, "kind(99)", Kind(99).String())
}
