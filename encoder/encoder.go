// Package encoder records rendered frames to a video file through an ffmpeg
// process fed with raw frames on its stdin.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrFrameSize is returned for frames that do not match the configured
	// dimensions.
	ErrFrameSize = errors.New("encoder: frame size does not match the recording")

	// ErrClosed is returned when writing to a closed recorder.
	ErrClosed = errors.New("encoder: recorder is closed")

	// ErrExitedEarly is returned when ffmpeg exits successfully before it
	// was sent the end of its input.
	ErrExitedEarly = errors.New("encoder: ffmpeg exited before the end of input")
)

// numBuffers is how many frames can be queued ahead of ffmpeg.
const numBuffers = 3

// Config describes a recording.
type Config struct {
	Width      int
	Height     int
	FPS        int
	OutputFile string
	// Codec is "h264" or "hevc".
	Codec string
	// PixelFormat is the ffmpeg name of the incoming pixel layout, "bgra"
	// when empty.
	PixelFormat string
	// HWAccel selects the platform's hardware encoder.
	HWAccel    bool
	FFMPEGPath string
}

// FrameSize is the byte size of one incoming frame.
func (c Config) FrameSize() int {
	return c.Width * c.Height * 4
}

// BuildArgs returns the ffmpeg input and output arguments for cfg on goos.
// Frames arrive bottom row first, as GL reads them, and are flipped here.
func BuildArgs(cfg Config, goos string) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	pixFmt := cfg.PixelFormat
	if pixFmt == "" {
		pixFmt = "bgra"
	}
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   pixFmt,
		"s":         fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"framerate": cfg.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}

	hevc := cfg.Codec == "hevc"
	switch {
	case cfg.HWAccel && goos == "linux":
		if hevc {
			outputArgs["c:v"] = "hevc_nvenc"
		} else {
			outputArgs["c:v"] = "h264_nvenc"
		}
		outputArgs["preset"] = "p2"
	case cfg.HWAccel && goos == "darwin":
		if hevc {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if hevc {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}

	if hevc && strings.EqualFold(filepath.Ext(cfg.OutputFile), ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return inputArgs, outputArgs
}

// Recorder pipes raw frames into ffmpeg. WriteFrame must not be called
// concurrently with Close.
type Recorder struct {
	cfg    Config
	frames chan []byte
	pool   sync.Pool
	group  *errgroup.Group
	ctx    context.Context

	closed   bool
	closeErr error
	written  int64
}

// NewRecorder starts ffmpeg. The process runs until Close or ctx is done.
func NewRecorder(ctx context.Context, cfg Config) (*Recorder, error) {
	if cfg.Width < 1 || cfg.Height < 1 || cfg.FPS < 1 {
		return nil, fmt.Errorf("encoder: invalid recording %dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)
	}

	inputArgs, outputArgs := BuildArgs(cfg, runtime.GOOS)
	pipeReader, pipeWriter := io.Pipe()

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(cfg.OutputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if cfg.FFMPEGPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(cfg.FFMPEGPath)
	}

	group, gctx := errgroup.WithContext(ctx)
	r := &Recorder{
		cfg:    cfg,
		frames: make(chan []byte, numBuffers),
		group:  group,
		ctx:    gctx,
	}
	r.pool.New = func() any { return make([]byte, cfg.FrameSize()) }

	log.WithFields(log.Fields{
		"output": cfg.OutputFile,
		"codec":  outputArgs["c:v"],
		"size":   inputArgs["s"],
		"fps":    cfg.FPS,
	}).Info("Starting ffmpeg")

	inputDone := make(chan struct{})

	group.Go(func() error {
		err := ffmpegCmd.Run()
		// unblock the writer if ffmpeg exits early
		pipeReader.CloseWithError(io.ErrClosedPipe)
		if err != nil {
			return fmt.Errorf("encoder: ffmpeg: %w", err)
		}
		select {
		case <-inputDone:
			return nil
		default:
			return ErrExitedEarly
		}
	})

	group.Go(func() error {
		for frame := range r.frames {
			_, err := pipeWriter.Write(frame)
			r.pool.Put(frame)
			if err != nil {
				pipeWriter.CloseWithError(err)
				return fmt.Errorf("encoder: write frame: %w", err)
			}
		}
		close(inputDone)
		return pipeWriter.Close()
	})

	return r, nil
}

// WriteFrame queues a copy of pixels for encoding.
func (r *Recorder) WriteFrame(pixels []byte) error {
	if r.closed {
		return ErrClosed
	}
	if len(pixels) != r.cfg.FrameSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(pixels), r.cfg.FrameSize())
	}

	if r.ctx.Err() != nil {
		return fmt.Errorf("encoder: pipeline stopped: %w", context.Cause(r.ctx))
	}

	buf := r.pool.Get().([]byte)
	copy(buf, pixels)
	select {
	case r.frames <- buf:
		r.written++
		return nil
	case <-r.ctx.Done():
		r.pool.Put(buf)
		return fmt.Errorf("encoder: pipeline stopped: %w", context.Cause(r.ctx))
	}
}

// Frames returns the number of frames queued so far.
func (r *Recorder) Frames() int64 {
	return r.written
}

// Close flushes the queued frames and waits for ffmpeg to finish. Frames still
// queued after the pipeline stopped are dropped and the failure is returned.
func (r *Recorder) Close() error {
	if r.closed {
		return r.closeErr
	}
	r.closed = true
	close(r.frames)
	r.closeErr = r.group.Wait()
	log.WithFields(log.Fields{"output": r.cfg.OutputFile, "frames": r.written}).Info("Recording finished")
	return r.closeErr
}
