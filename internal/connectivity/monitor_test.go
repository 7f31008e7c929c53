package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_ReflectsHostSignal(t *testing.T) {
	sut := NewMonitor(true)
	assert.True(t, sut.Online())

	sut.SetOnline(false)
	assert.False(t, sut.Online())

	sut.SetOnline(true)
	assert.True(t, sut.Online())
}

func TestMonitor_NotifiesOnTransitionsOnly(t *testing.T) {
	sut := NewMonitor(true)

	var events []bool
	sut.Subscribe(func(online bool) {
		events = append(events, online)
	})

	sut.SetOnline(true) // duplicate, no event
	sut.SetOnline(false)
	sut.SetOnline(false) // duplicate, no event
	sut.SetOnline(true)

	assert.Equal(t, []bool{false, true}, events)
}
