//go:build !linux

package headless

import (
	"errors"
	"fmt"

	"github.com/richinsley/goglhost/graphics"
)

// ErrEGL wraps failing EGL calls.
var ErrEGL = errors.New("headless: egl call failed")

// NewHeadless needs EGL device enumeration, which only linux provides here.
func NewHeadless() (graphics.Context, error) {
	return nil, fmt.Errorf("%w: headless rendering is only supported on linux", ErrEGL)
}
