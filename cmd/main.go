package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"

	"github.com/jessevdk/go-flags"
	"github.com/richinsley/goglhost/api"
	"github.com/richinsley/goglhost/options"
	log "github.com/sirupsen/logrus"
)

func init() {
	// glfw and every GL context must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	if err := options.LoadEnv(".env"); err != nil {
		log.WithError(err).Fatal("Failed to load .env")
	}

	opts, _, err := options.Parse(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.WithError(err).Error("Invalid arguments")
		os.Exit(1)
	}
	if err := options.SetLogLevel(opts.LogLevel); err != nil {
		log.WithError(err).Fatal("Failed to set log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shaderArgs := loadShader(ctx, opts)

	switch opts.Mode {
	case "record":
		err = runRecord(ctx, opts, shaderArgs)
	default:
		err = runInteractive(ctx, opts, shaderArgs)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("goglhost failed")
	}
}

// loadShader fetches the configured shader. Any failure falls back to the
// built-in image, signalled by a nil result.
func loadShader(ctx context.Context, opts *options.Options) *api.ShaderArgs {
	if opts.Offline {
		log.Info("Offline, using the built-in shader")
		return nil
	}

	logger := log.WithField("shader", opts.ShaderID)
	var clientOpts []api.ClientOption
	if !opts.NoCache {
		cache, err := newCache()
		if err != nil {
			logger.WithError(err).Warn("Shader cache unavailable")
		} else {
			clientOpts = append(clientOpts, api.WithCache(cache))
		}
	}

	logger.Info("Fetching shader")
	resp, err := api.NewClient(opts.APIKey, clientOpts...).Shader(ctx, opts.ShaderID)
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch shader, using the built-in shader")
		return nil
	}
	args, err := api.ShaderArgsFromJSON(resp)
	if err != nil {
		logger.WithError(err).Warn("Failed to process shader, using the built-in shader")
		return nil
	}
	if !args.Complete {
		logger.Warn("Shader uses unsupported inputs, those channels stay unbound")
	}
	logger.WithField("title", args.Title).Info("Shader loaded")
	return args
}

func newCache() (*api.Cache, error) {
	dir, err := api.DefaultCacheDir()
	if err != nil {
		return nil, err
	}
	return api.NewCache(dir)
}
