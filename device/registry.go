package device

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrCreateDevice is returned when the shared device cannot be constructed.
var ErrCreateDevice = errors.New("device: failed to create shared device")

// Registry reference counts the single shared device. The device is created
// on the 0->1 transition and destroyed on the 1->0 transition, whatever order
// the holders acquire and release in.
type Registry struct {
	mu      sync.Locker
	factory Factory
	params  Parameters
	device  Device
	refs    int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocker sets the lock guarding the reference count.
func WithLocker(l sync.Locker) Option {
	return func(r *Registry) {
		r.mu = l
	}
}

// WithParameters sets the parameters the device is created with.
func WithParameters(p Parameters) Option {
	return func(r *Registry) {
		r.params = p
	}
}

// NewRegistry creates a registry constructing its device with factory.
func NewRegistry(factory Factory, opts ...Option) *Registry {
	r := &Registry{
		mu:      &sync.Mutex{},
		factory: factory,
	}
	for _, opt := range opts {
		opt(r)
	}
	// never associate the shared device with a window
	r.params.Window = 0
	return r
}

// Acquire takes a reference to the shared device, creating it if this is the
// first reference.
func (r *Registry) Acquire() (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refs++
	if r.refs == 1 {
		d, err := r.factory(r.params)
		if err != nil {
			r.refs--
			return nil, fmt.Errorf("%w: %w", ErrCreateDevice, err)
		}
		r.device = d
		log.WithField("refs", r.refs).Debug("Shared device created")
	}
	return r.device, nil
}

// Release drops a reference, destroying the device with the last one.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs == 0 {
		log.Warn("Shared device released more times than acquired")
		return
	}

	r.refs--
	if r.refs == 0 {
		r.device.Destroy()
		r.device = nil
		log.Debug("Shared device destroyed")
	}
}

// Device returns the shared device, or nil when nobody holds a reference.
func (r *Registry) Device() Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// RefCount returns the number of outstanding references.
func (r *Registry) RefCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs
}
