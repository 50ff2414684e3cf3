package options

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Options configures the goglhost binary. Every flag can also be set from the
// environment or a .env file.
type Options struct {
	APIKey   string `long:"apikey" env:"SHADERTOY_KEY" description:"Shadertoy API key"`
	ShaderID string `long:"shader" env:"GOGLHOST_SHADER" default:"XlSSzV" description:"Shadertoy shader ID or URL"`
	Offline  bool   `long:"offline" description:"Skip shadertoy and render the built-in shader"`
	NoCache  bool   `long:"no-cache" description:"Do not read or write the shader cache"`

	Mode     string `long:"mode" env:"GOGLHOST_MODE" default:"interactive" choice:"interactive" choice:"record" description:"Run panels in windows or record one panel to a file"`
	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level"`

	Width         int  `long:"width" default:"640" description:"Initial panel width"`
	Height        int  `long:"height" default:"360" description:"Initial panel height"`
	Panels        int  `long:"panels" default:"2" description:"Number of panels opened at startup"`
	FPS           int  `long:"fps" default:"60" description:"Target frame rate of the first panel, and of the recording"`
	SecondaryFPS  int  `long:"secondary-fps" default:"30" description:"Target frame rate of the other panels"`
	MultiSampling bool `long:"msaa" description:"Request multisampled back buffers"`
	Design        bool `long:"design" description:"Open the panels in design mode, they stay inert"`

	Duration   float64 `long:"duration" default:"10" description:"Seconds to record"`
	OutputFile string  `long:"output" default:"output.mp4" description:"Recording output file"`
	Codec      string  `long:"codec" default:"h264" choice:"h264" choice:"hevc" description:"Recording codec"`
	HWAccel    bool    `long:"hwaccel" description:"Encode with the platform's hardware encoder"`
	FFMPEGPath string  `long:"ffmpeg" env:"FFMPEG_PATH" description:"Path to the ffmpeg executable"`
	Headless   bool    `long:"headless" description:"Record on an EGL device instead of a hidden glfw window (linux)"`
}

// Parse parses command line arguments, returning the ones left over.
func Parse(args []string) (*Options, []string, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}
	if opts.Width < 1 || opts.Height < 1 {
		return nil, nil, fmt.Errorf("invalid panel size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS < 1 || opts.SecondaryFPS < 1 {
		return nil, nil, fmt.Errorf("frame rates must be positive")
	}
	return &opts, rest, nil
}

// LoadEnv loads .env style files into the environment. Missing files are
// skipped and variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// SetLogLevel configures the global logger.
func SetLogLevel(logLevel string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q, valid levels are %v: %w", logLevel, log.AllLevels, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

// FrameInterval converts a frame rate to the time between frames.
func FrameInterval(fps int) time.Duration {
	if fps < 1 {
		return 0
	}
	return time.Second / time.Duration(fps)
}
