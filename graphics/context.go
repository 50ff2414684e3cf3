package graphics

// Context is an OpenGL context that can be bound to the calling OS thread.
type Context interface {
	MakeCurrent()
	DetachCurrent()
	Shutdown()
}
