package svcindex

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/transport"
	"golang.org/x/sync/errgroup"
)

// App runs a set of servers until a signal arrives, Stop is called or one of
// them fails, then stops all of them.
type App struct {
	servers     []transport.Server
	signals     []os.Signal
	stopTimeout time.Duration
	logger      logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

type Option func(*App)

func Server(srv ...transport.Server) Option {
	return func(a *App) {
		a.servers = append(a.servers, srv...)
	}
}

func Signal(sigs ...os.Signal) Option {
	return func(a *App) {
		a.signals = sigs
	}
}

// StopTimeout bounds the graceful shutdown of each server.
func StopTimeout(tm time.Duration) Option {
	return func(a *App) {
		a.stopTimeout = tm
	}
}

func Logger(l logger.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func Context(ctx context.Context) Option {
	return func(a *App) {
		a.ctx = ctx
	}
}

func New(opts ...Option) *App {
	a := &App{
		signals:     []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT},
		stopTimeout: 3 * time.Second,
		logger:      logger.Default(),
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancel(a.ctx)
	return a
}

func (a *App) Run() error {
	eg, ctx := errgroup.WithContext(a.ctx)
	for _, srv := range a.servers {
		srv := srv
		eg.Go(func() error {
			<-ctx.Done()
			cx, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
			defer cancel()
			return srv.Stop(cx)
		})
		eg.Go(func() error {
			if err := srv.Start(); err != nil {
				return err
			}
			// a server that returns on its own takes the others down with it
			a.cancel()
			return nil
		})
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, a.signals...)
	defer signal.Stop(c)
	eg.Go(func() error {
		select {
		case <-ctx.Done():
		case sig := <-c:
			a.logger.Log(ctx, logger.InfoLevel, map[string]interface{}{"signal": sig.String()}, "shutting down")
			a.cancel()
		}
		return nil
	})

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop makes Run return after every server stopped.
func (a *App) Stop() {
	a.cancel()
}
