package device

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/richinsley/goglhost/backbuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	params    Parameters
	destroyed int
}

func (d *fakeDevice) NewBackBuffer(backbuffer.Descriptor) (backbuffer.BackBuffer, error) {
	return nil, errors.New("not implemented")
}
func (d *fakeDevice) SetRenderTarget(backbuffer.BackBuffer) error { return nil }
func (d *fakeDevice) Flush()                                      {}
func (d *fakeDevice) ApplyParameters(p Parameters) error {
	d.params = p
	return nil
}
func (d *fakeDevice) Parameters() Parameters { return d.params }
func (d *fakeDevice) Destroy()               { d.destroyed++ }

type countingFactory struct {
	mu      sync.Mutex
	created []*fakeDevice
	err     error
}

func (f *countingFactory) New(p Parameters) (Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d := &fakeDevice{params: p}
	f.created = append(f.created, d)
	return d, nil
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

func TestAcquireCreatesOnce(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.New)

	d1, err := r.Acquire()
	require.NoError(t, err)
	d2, err := r.Acquire()
	require.NoError(t, err)

	assert.Same(t, d1, d2)
	assert.Len(t, f.created, 1)
	assert.Equal(t, 2, r.RefCount())
}

func TestReleaseDestroysWithLastReference(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.New)

	_, err := r.Acquire()
	require.NoError(t, err)
	_, err = r.Acquire()
	require.NoError(t, err)

	r.Release()
	require.NotNil(t, r.Device())
	assert.Equal(t, 0, f.created[0].destroyed)

	r.Release()
	assert.Nil(t, r.Device())
	assert.Equal(t, 1, f.created[0].destroyed)
	assert.Equal(t, 0, r.RefCount())
}

func TestReacquireAfterDestroyCreatesNewDevice(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.New)

	_, err := r.Acquire()
	require.NoError(t, err)
	r.Release()
	_, err = r.Acquire()
	require.NoError(t, err)

	require.Len(t, f.created, 2)
	assert.Equal(t, 1, f.created[0].destroyed)
	assert.Equal(t, 0, f.created[1].destroyed)
}

func TestFactoryFailureRollsBackCount(t *testing.T) {
	noGPU := errors.New("no adapter")
	f := &countingFactory{err: noGPU}
	r := NewRegistry(f.New)

	d, err := r.Acquire()
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, ErrCreateDevice))
	assert.True(t, errors.Is(err, noGPU))
	assert.Equal(t, 0, r.RefCount())
	assert.Nil(t, r.Device())

	f.err = nil
	d, err = r.Acquire()
	require.NoError(t, err)
	assert.NotNil(t, d)
	assert.Equal(t, 1, r.RefCount())
}

func TestReleaseWithoutAcquireIsTolerated(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.New)

	r.Release()
	assert.Equal(t, 0, r.RefCount())

	_, err := r.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, r.RefCount())
}

func TestDeviceIsSurfaceless(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.New, WithParameters(Parameters{BackBufferWidth: 8, Window: 42}))

	_, err := r.Acquire()
	require.NoError(t, err)
	assert.Equal(t, uintptr(0), f.created[0].params.Window)
	assert.Equal(t, 8, f.created[0].params.BackBufferWidth)
}

func TestInjectedLockerGuardsOperations(t *testing.T) {
	l := &countingLocker{}
	f := &countingFactory{}
	r := NewRegistry(f.New, WithLocker(l))

	_, err := r.Acquire()
	require.NoError(t, err)
	r.Release()

	assert.Equal(t, 2, l.locks)
}

func TestRandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		f := &countingFactory{}
		r := NewRegistry(f.New)
		loaded := 0
		n := 1 + rng.Intn(8)
		ops := make([]bool, 0, 2*n)
		for i := 0; i < n; i++ {
			ops = append(ops, true, false)
		}
		// any order in which releases never exceed acquires
		rng.Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })
		for _, acquire := range ops {
			if acquire || loaded == 0 {
				_, err := r.Acquire()
				require.NoError(t, err)
				loaded++
			} else {
				r.Release()
				loaded--
			}
			assert.Equal(t, loaded, r.RefCount())
			assert.Equal(t, loaded > 0, r.Device() != nil)
		}
		for loaded > 0 {
			r.Release()
			loaded--
		}
		assert.Nil(t, r.Device())
		for _, d := range f.created {
			assert.Equal(t, 1, d.destroyed)
		}
	}
}

func TestConcurrentAcquireRelease(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.New)

	// one holder keeps the device alive for the whole run
	_, err := r.Acquire()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.Acquire(); err != nil {
					t.Error(err)
					return
				}
				r.Release()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, f.created, 1)
	assert.Equal(t, 1, r.RefCount())
	r.Release()
	assert.Equal(t, 1, f.created[0].destroyed)
}
