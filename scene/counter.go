package scene

import (
	"math"
	"time"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goglhost/host"
	log "github.com/sirupsen/logrus"
)

// Counts tracks how often the lifecycle hooks of Counter games ran. One
// Counts can be shared by several panels to see hosts come and go.
type Counts struct {
	Initialize int
	Dispose    int
	Render     int
}

// Counter is a game that clears its back buffer to a slowly cycling color and
// logs every Initialize and Dispose.
type Counter struct {
	counts *Counts
	log    *log.Entry
}

var _ host.Game = (*Counter)(nil)

// NewCounter creates a counter game recording into counts.
func NewCounter(counts *Counts) *Counter {
	return &Counter{counts: counts, log: log.NewEntry(log.StandardLogger())}
}

func (c *Counter) Initialize(h *host.Host) error {
	c.log = h.Logger()
	c.counts.Initialize++
	c.log.WithField("initialize", c.counts.Initialize).Info("Counter initialized")
	return nil
}

func (c *Counter) Render(t host.GameTime) {
	c.counts.Render++
	r, g, b := colorAt(t.Total)
	gl.ClearColor(r, g, b, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (c *Counter) Dispose(disposing bool) {
	c.counts.Dispose++
	c.log.WithFields(log.Fields{"dispose": c.counts.Dispose, "disposing": disposing}).Info("Counter disposed")
}

// colorAt cycles the hue once every six seconds.
func colorAt(t time.Duration) (r, g, b float32) {
	phase := 2 * math.Pi * t.Seconds() / 6
	channel := func(offset float64) float32 {
		return float32(0.5 + 0.5*math.Cos(phase+offset))
	}
	return channel(0), channel(2 * math.Pi / 3), channel(4 * math.Pi / 3)
}
