package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/maskpaint/internal/server"
)

// serveCmd runs the HTTP and websocket server.
type serveCmd struct {
	addr      string
	origins   string
	width     int
	height    int
	maxPixels int
	debug     bool
	*root
	fs *flag.FlagSet
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	s := &serveCmd{root: r.subcommand("serve"), fs: fs}
	fs.Usage = usageFunc(s)
	cfg := s.cfg()
	fs.StringVar(&s.addr, "addr", cfg.Server.Addr, "listen address")
	fs.StringVar(&s.origins, "origins", cfg.Server.AllowedOrigins, "comma separated websocket origin patterns")
	fs.IntVar(&s.width, "width", 1920, "default session image width")
	fs.IntVar(&s.height, "height", 1080, "default session image height")
	fs.IntVar(&s.maxPixels, "max-pixels", server.DefaultMaxPixels, "largest raster a request may allocate")
	fs.BoolVar(&s.debug, "debug", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	level := slog.LevelInfo
	if s.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := *s.cfg()
	cfg.Server.AllowedOrigins = s.origins

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Addr:            s.addr,
		AllowedOrigins:  cfg.Origins(),
		ImageWidth:      s.width,
		ImageHeight:     s.height,
		CreationOpacity: cfg.CreationOpacity,
		MaxPixels:       s.maxPixels,
		Logger:          logger,
	})
	return srv.ListenAndServe(ctx)
}
