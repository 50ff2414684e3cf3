// Package host embeds a retained GPU rendering surface in a UI panel.
//
// A Host follows the panel through its lifecycle: on attach it acquires the
// process-wide shared device, creates its presentation bridge and back buffer
// and initializes its Game; while the panel's surface is presentable it
// renders on the UI layer's frame callback, paced to TargetElapsedTime; on
// detach it releases everything in reverse. All methods must be called from
// the UI goroutine.
package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richinsley/goglhost/backbuffer"
	"github.com/richinsley/goglhost/device"
	"github.com/richinsley/goglhost/pacer"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInitialize wraps a failure of Game.Initialize.
	ErrInitialize = errors.New("host: initialize failed")

	// ErrDisposed is returned when attaching a host that was torn down.
	ErrDisposed = errors.New("host: disposed")

	// ErrNotLoaded is returned by operations that need the shared device
	// before the host has been attached.
	ErrNotLoaded = errors.New("host: not loaded")
)

// Host is the per-panel orchestrator of the shared device, the back buffer,
// the frame pacer and the Game hooks.
type Host struct {
	id       string
	panel    Panel
	registry *device.Registry
	game     Game
	log      *log.Entry
	onError  func(error)

	state       State
	loaded      bool
	initialized bool
	disposed    bool

	device       device.Device
	bridge       backbuffer.Bridge
	buffers      *backbuffer.Manager
	pacer        *pacer.Pacer
	cancelFrames func()

	resetBackBuffer bool
	width, height   float64

	services *Services
}

// Option configures a Host.
type Option func(*Host)

// WithTargetElapsedTime sets the minimum time between two rendered frames.
func WithTargetElapsedTime(d time.Duration) Option {
	return func(h *Host) {
		h.pacer.SetTarget(d)
	}
}

// WithErrorHandler registers fn to receive failures that happen outside of a
// direct call, such as a failing Initialize during attach or a back buffer
// that cannot be reallocated during a frame.
func WithErrorHandler(fn func(error)) Option {
	return func(h *Host) {
		h.onError = fn
	}
}

// WithLogger sets the logger the host derives its entries from.
func WithLogger(entry *log.Entry) Option {
	return func(h *Host) {
		h.log = entry.WithField("host", h.id)
	}
}

// New creates an unloaded host for panel. It does nothing until Attach.
func New(panel Panel, registry *device.Registry, game Game, opts ...Option) *Host {
	h := &Host{
		id:       uuid.New().String(),
		panel:    panel,
		registry: registry,
		game:     game,
		pacer:    pacer.New(pacer.DefaultTargetElapsedTime),
		services: NewServices(),
	}
	h.log = log.WithField("host", h.id)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach loads the host. It is a no-op when the host is already loaded or the
// panel is in design mode.
//
// If Game.Initialize fails the host stays loaded but never renders, and the
// error is both returned and passed to the error handler. Resources acquired
// before the failure are kept until Detach.
func (h *Host) Attach() error {
	if h.panel.DesignMode() || h.loaded {
		return nil
	}
	if h.disposed {
		return ErrDisposed
	}

	h.setState(Loading)
	h.width, h.height = h.panel.Size()

	d, err := h.registry.Acquire()
	if err != nil {
		h.setState(Unloaded)
		return err
	}
	h.device = d
	h.loaded = true

	if err := h.initializeSurface(); err != nil {
		h.setState(Paused)
		h.log.WithError(err).Error("Failed to create presentation surface")
		return err
	}
	// the surface was just sized from the panel, a pending resize is stale
	h.resetBackBuffer = false

	if err := h.initializeGame(); err != nil {
		h.setState(Paused)
		h.fail(err)
		return err
	}
	h.initialized = true
	h.startRendering()
	return nil
}

func (h *Host) initializeSurface() error {
	bridge, err := h.panel.NewBridge()
	if err != nil {
		return fmt.Errorf("host: create bridge: %w", err)
	}
	h.bridge = bridge
	bridge.OnFrontBufferAvailableChanged(h.frontBufferAvailableChanged)

	h.buffers = backbuffer.NewManager(h.device, bridge)
	return h.buffers.Recreate(int(h.width), int(h.height))
}

func (h *Host) initializeGame() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInitialize, r)
		}
	}()
	if ierr := h.game.Initialize(h); ierr != nil {
		return fmt.Errorf("%w: %w", ErrInitialize, ierr)
	}
	return nil
}

// Detach tears the host down: it stops rendering, destroys the back buffer and
// the bridge, disposes the game and releases the shared device. Only the first
// call has any effect, and it is safe before Attach has completed.
func (h *Host) Detach() {
	if h.panel.DesignMode() || h.disposed {
		return
	}
	h.disposed = true
	if !h.loaded {
		h.setState(Unloaded)
		return
	}

	h.setState(Unloading)
	h.stopRendering()

	if h.buffers != nil {
		h.buffers.Destroy()
	}
	if h.bridge != nil {
		h.bridge.OnFrontBufferAvailableChanged(nil)
		h.bridge.Destroy()
		h.bridge = nil
	}

	h.disposeGame()

	h.device = nil
	h.registry.Release()
	h.loaded = false
	h.setState(Unloaded)
}

// Close is Detach, for use as an io.Closer.
func (h *Host) Close() error {
	h.Detach()
	return nil
}

func (h *Host) disposeGame() {
	defer func() {
		if r := recover(); r != nil {
			h.log.WithField("panic", r).Error("Game dispose panicked")
		}
	}()
	h.game.Dispose(true)
}

// SizeChanged records the panel's new layout size. The back buffer is
// reallocated on the next frame callback, not here.
func (h *Host) SizeChanged(width, height float64) {
	h.width, h.height = width, height
	h.resetBackBuffer = true
}

func (h *Host) frontBufferAvailableChanged(available bool) {
	if !h.loaded {
		return
	}
	// the front buffer may have changed identity, reallocate on resume
	h.resetBackBuffer = true
	if !available {
		h.stopRendering()
		h.setState(Paused)
		return
	}
	if h.initialized {
		h.startRendering()
	}
}

func (h *Host) startRendering() {
	if h.cancelFrames != nil {
		return
	}
	h.cancelFrames = h.panel.Frames().Subscribe(h.onFrame)
	h.setState(Rendering)
}

func (h *Host) stopRendering() {
	if h.cancelFrames == nil {
		return
	}
	h.cancelFrames()
	h.cancelFrames = nil
}

func (h *Host) onFrame(timestamp time.Duration) {
	if h.cancelFrames == nil {
		return
	}

	reset := h.resetBackBuffer
	if reset {
		if err := h.buffers.Recreate(int(h.width), int(h.height)); err != nil {
			h.stopRendering()
			h.setState(Paused)
			h.fail(err)
			return
		}
	}

	if d := h.pacer.Next(timestamp, reset); d.Render {
		if err := h.draw(GameTime{Total: timestamp, Elapsed: d.Delta}); err != nil {
			h.fail(err)
		}
		// the game or the error handler may have detached or paused the host
		if h.cancelFrames == nil {
			return
		}
	}

	// always publish, skipping it flickers while the UI invalidates rapidly
	h.bridge.Invalidate()
	h.resetBackBuffer = false
}

func (h *Host) draw(t GameTime) error {
	if err := h.device.SetRenderTarget(h.buffers.Current()); err != nil {
		return fmt.Errorf("host: set render target: %w", err)
	}
	h.game.Render(t)
	if h.cancelFrames == nil {
		return nil
	}
	h.device.Flush()
	return nil
}

// ApplyParameters updates the shared device parameters in place and then
// reallocates this host's back buffer with the effective multisample count.
//
// If the new back buffer cannot be allocated the host is paused the same way a
// failed frame reallocation pauses it, and the allocation is retried when the
// front buffer becomes available again.
func (h *Host) ApplyParameters(p device.Parameters) error {
	if !h.loaded || h.buffers == nil {
		return ErrNotLoaded
	}
	p.Window = 0
	if err := h.device.ApplyParameters(p); err != nil {
		return fmt.Errorf("host: apply parameters: %w", err)
	}
	h.buffers.SetMultiSampleCount(h.device.Parameters().MultiSampleCount)
	if err := h.buffers.Recreate(int(h.width), int(h.height)); err != nil {
		h.resetBackBuffer = true
		h.stopRendering()
		h.setState(Paused)
		h.fail(err)
		return err
	}
	return nil
}

func (h *Host) fail(err error) {
	h.log.WithError(err).Error("Host failure")
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *Host) setState(s State) {
	if h.state == s {
		return
	}
	h.log.WithFields(log.Fields{"from": h.state, "to": s}).Debug("Host state changed")
	h.state = s
}

// ID returns the host's unique identifier.
func (h *Host) ID() string {
	return h.id
}

// State returns the lifecycle state.
func (h *Host) State() State {
	return h.state
}

// IsRendering reports whether the host is subscribed to frame callbacks.
func (h *Host) IsRendering() bool {
	return h.cancelFrames != nil
}

// Device returns the shared device, or nil while unloaded. The device is
// shared with every other host and must not be destroyed.
func (h *Host) Device() device.Device {
	return h.device
}

// TargetElapsedTime returns the minimum time between two rendered frames.
func (h *Host) TargetElapsedTime() time.Duration {
	return h.pacer.Target()
}

// SetTargetElapsedTime changes the minimum time between two rendered frames.
func (h *Host) SetTargetElapsedTime(d time.Duration) {
	h.pacer.SetTarget(d)
}

// Size returns the last recorded layout size.
func (h *Host) Size() (width, height float64) {
	return h.width, h.height
}

// BackBufferSize returns the size of the current back buffer, 0x0 if none.
func (h *Host) BackBufferSize() (width, height int) {
	if h.buffers == nil || h.buffers.Current() == nil {
		return 0, 0
	}
	bb := h.buffers.Current()
	return bb.Width(), bb.Height()
}

// Services returns the per-panel service container.
func (h *Host) Services() *Services {
	return h.services
}

// Logger returns the host's log entry.
func (h *Host) Logger() *log.Entry {
	return h.log
}
