package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceServiceAppliesOnConstruction(t *testing.T) {
	f := newFixture()
	g := f.game()
	var svc *DeviceService
	g.onInit = func(h *Host) error {
		var err error
		svc, err = NewDeviceService(h, true)
		return err
	}
	h := New(f.panel(640, 480), f.registry, g)
	require.NoError(t, h.Attach())

	d := f.devices[0]
	assert.Equal(t, 640, d.params.BackBufferWidth)
	assert.Equal(t, 480, d.params.BackBufferHeight)
	assert.Equal(t, 4, d.params.MultiSampleCount)
	assert.Zero(t, d.params.Window)

	// initial allocation plus the one from ApplyChanges
	require.Len(t, d.allocated, 2)
	assert.Equal(t, 4, d.allocated[1].MultiSampleCount)

	assert.Equal(t, 640, svc.PreferredBackBufferWidth())
	assert.Equal(t, 480, svc.PreferredBackBufferHeight())
	got, ok := GetService[*DeviceService](h.Services())
	require.True(t, ok)
	assert.Same(t, svc, got)
}

func TestDeviceServiceApplyChangesKeepsDevice(t *testing.T) {
	f := newFixture()
	h := New(f.panel(100, 50), f.registry, f.game())
	require.NoError(t, h.Attach())

	svc, err := NewDeviceService(h, false)
	require.NoError(t, err)
	before := h.Device()

	svc.SetPreferMultiSampling(true)
	require.NoError(t, svc.ApplyChanges())

	assert.Same(t, before, h.Device())
	assert.Len(t, f.devices, 1)
	assert.Equal(t, 4, f.devices[0].params.MultiSampleCount)
	last := f.devices[0].allocated[len(f.devices[0].allocated)-1]
	assert.Equal(t, 4, last.MultiSampleCount)
	assert.Equal(t, 100, last.Width)

	svc.SetPreferMultiSampling(false)
	require.NoError(t, svc.ApplyChanges())
	assert.Equal(t, 0, f.devices[0].params.MultiSampleCount)
}

func TestDeviceServiceSecondRegistration(t *testing.T) {
	f := newFixture()
	h := New(f.panel(10, 10), f.registry, f.game())
	require.NoError(t, h.Attach())

	_, err := NewDeviceService(h, false)
	require.NoError(t, err)

	_, err = NewDeviceService(h, false)
	assert.ErrorIs(t, err, ErrServiceRegistered)
	assert.Panics(t, func() { MustNewDeviceService(h, false) })
}

func TestDeviceServiceCloseUnregisters(t *testing.T) {
	f := newFixture()
	h := New(f.panel(10, 10), f.registry, f.game())
	require.NoError(t, h.Attach())

	svc := MustNewDeviceService(h, false)
	svc.Close()
	assert.Equal(t, 0, h.Services().Len())

	_, err := NewDeviceService(h, true)
	assert.NoError(t, err)
}

func TestDeviceServiceBeforeAttach(t *testing.T) {
	f := newFixture()
	h := New(f.panel(10, 10), f.registry, f.game())

	_, err := NewDeviceService(h, false)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, 0, h.Services().Len())
}

func TestDeviceServiceClampsPreferredSize(t *testing.T) {
	f := newFixture()
	h := New(f.panel(0, 0.5), f.registry, f.game())
	require.NoError(t, h.Attach())

	svc := MustNewDeviceService(h, false)
	assert.Equal(t, 1, svc.PreferredBackBufferWidth())
	assert.Equal(t, 1, svc.PreferredBackBufferHeight())
}

type counter struct{ n int }

func TestServicesContainer(t *testing.T) {
	s := NewServices()
	c := &counter{n: 3}

	require.NoError(t, AddService(s, c))
	assert.ErrorIs(t, AddService(s, &counter{}), ErrServiceRegistered)

	got, ok := GetService[*counter](s)
	require.True(t, ok)
	assert.Equal(t, 3, got.n)

	_, ok = GetService[counter](s)
	assert.False(t, ok)

	RemoveService[*counter](s)
	RemoveService[*counter](s)
	assert.Equal(t, 0, s.Len())
}
