package host

import (
	"github.com/richinsley/goglhost/device"
)

// MaxMultiSampleCount is requested when multisampling is preferred. The
// device clamps it to what the implementation supports.
const MaxMultiSampleCount = 32

// DeviceService lets a Game change the shared device parameters of its host.
// At most one can exist per host.
type DeviceService struct {
	host                *Host
	preferMultiSampling bool
}

// NewDeviceService registers a DeviceService with h and applies its
// parameters. A second registration on the same host fails with
// ErrServiceRegistered.
func NewDeviceService(h *Host, preferMultiSampling bool) (*DeviceService, error) {
	s := &DeviceService{host: h, preferMultiSampling: preferMultiSampling}
	if err := AddService[*DeviceService](h.Services(), s); err != nil {
		return nil, err
	}
	if err := s.ApplyChanges(); err != nil {
		RemoveService[*DeviceService](h.Services())
		return nil, err
	}
	return s, nil
}

// MustNewDeviceService is like NewDeviceService but panics on error.
func MustNewDeviceService(h *Host, preferMultiSampling bool) *DeviceService {
	s, err := NewDeviceService(h, preferMultiSampling)
	if err != nil {
		panic(err)
	}
	return s
}

// PreferredBackBufferWidth is the panel's layout width, at least 1.
func (s *DeviceService) PreferredBackBufferWidth() int {
	w, _ := s.host.Size()
	return max(int(w), 1)
}

// PreferredBackBufferHeight is the panel's layout height, at least 1.
func (s *DeviceService) PreferredBackBufferHeight() int {
	_, h := s.host.Size()
	return max(int(h), 1)
}

// PreferMultiSampling reports whether multisampling is requested.
func (s *DeviceService) PreferMultiSampling() bool {
	return s.preferMultiSampling
}

// SetPreferMultiSampling takes effect on the next ApplyChanges.
func (s *DeviceService) SetPreferMultiSampling(v bool) {
	s.preferMultiSampling = v
}

// ApplyChanges updates the shared device in place and recreates the host's
// back buffer.
func (s *DeviceService) ApplyChanges() error {
	samples := 0
	if s.preferMultiSampling {
		samples = MaxMultiSampleCount
	}
	return s.host.ApplyParameters(device.Parameters{
		BackBufferWidth:  s.PreferredBackBufferWidth(),
		BackBufferHeight: s.PreferredBackBufferHeight(),
		MultiSampleCount: samples,
	})
}

// Close unregisters the service from its host.
func (s *DeviceService) Close() {
	RemoveService[*DeviceService](s.host.Services())
}
