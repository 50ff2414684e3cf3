package host

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrServiceRegistered is returned when a service type is registered twice
// on the same host.
var ErrServiceRegistered = errors.New("host: service already registered")

// Services is a per-host container of services keyed by type.
type Services struct {
	byType map[reflect.Type]any
}

// NewServices creates an empty container.
func NewServices() *Services {
	return &Services{byType: map[reflect.Type]any{}}
}

// AddService registers svc under T. Each type can be registered once.
func AddService[T any](s *Services, svc T) error {
	key := reflect.TypeFor[T]()
	if _, ok := s.byType[key]; ok {
		return fmt.Errorf("%w: %s", ErrServiceRegistered, key)
	}
	s.byType[key] = svc
	return nil
}

// GetService returns the service registered under T.
func GetService[T any](s *Services) (T, bool) {
	svc, ok := s.byType[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return svc.(T), true
}

// RemoveService unregisters T. Removing an absent type is a no-op.
func RemoveService[T any](s *Services) {
	delete(s.byType, reflect.TypeFor[T]())
}

// Len returns the number of registered services.
func (s *Services) Len() int {
	return len(s.byType)
}
