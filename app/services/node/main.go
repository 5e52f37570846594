package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/reszka/app/services/node/handlers"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/ardanlabs/reszka/foundation/blockchain/rpc"
	"github.com/ardanlabs/reszka/foundation/blockchain/state"
	"github.com/ardanlabs/reszka/foundation/blockchain/worker"
	"github.com/ardanlabs/reszka/foundation/events"
	"github.com/ardanlabs/reszka/foundation/logger"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			Difficulty   uint          `conf:"default:3"`
			MinerWorkers int           `conf:"default:2"`
			MaxAttempts  uint64        `conf:"default:0"`
			LockTimeout  time.Duration `conf:"default:30s"`
		}
		Network struct {
			SelfHost          string        `conf:"default:localhost:8080"`
			MasterURL         string        `conf:"help:empty makes this node the master"`
			Key               string        `conf:"default:reszka,mask"`
			RequestTimeout    time.Duration `conf:"default:5s"`
			BootstrapRetries  uint64        `conf:"default:0"`
			BootstrapInterval time.Duration `conf:"default:1s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// The ledger and registry locks report any lock held past this timeout.
	deadlock.Opts.DeadlockTimeout = cfg.State.LockTimeout
	deadlock.Opts.OnPotentialDeadlock = func() {
		log.Errorw("startup", "status", "potential deadlock detected")
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	client := rpc.NewClient(cfg.Network.RequestTimeout)
	self := peer.New(peer.SelfURL(cfg.Network.SelfHost))

	// A node without a master url is the master. Every other node must
	// register with the master before it can serve.
	var registry *peer.Registry
	switch cfg.Network.MasterURL {
	case "":
		registry = peer.NewMaster(self, cfg.Network.Key)
		log.Infow("startup", "status", "running as master", "self", self.URL)

	default:
		registry = peer.NewSatellite(peer.New(cfg.Network.MasterURL), cfg.Network.Key)
		log.Infow("startup", "status", "running as satellite", "self", self.URL, "master", registry.Master().URL)
	}

	// The state value represents the blockchain node and manages the ledger
	// and provides an API for application support.
	state, err := state.New(state.Config{
		Host:        self.URL,
		Difficulty:  cfg.State.Difficulty,
		MaxAttempts: cfg.State.MaxAttempts,
		Registry:    registry,
		Client:      client,
		EvHandler:   ev,
	})
	if err != nil {
		return err
	}
	defer state.Shutdown()

	// The worker package runs the mining goroutines. The worker will register
	// itself with the state.
	worker.Run(state, cfg.State.MinerWorkers, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, state)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Construct the mux for the API calls.
	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    state,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Register With Master

	// The listener is up so the master can reach this node as soon as it
	// has been registered. A failure here is fatal.
	if registry.Role() == peer.Satellite {
		err := peer.Bootstrap(context.Background(), peer.BootstrapConfig{
			Client:    client,
			SelfHost:  cfg.Network.SelfHost,
			MasterURL: cfg.Network.MasterURL,
			Key:       cfg.Network.Key,
			Retries:   cfg.Network.BootstrapRetries,
			Interval:  cfg.Network.BootstrapInterval,
			EvHandler: ev,
		})
		if err != nil {
			api.Close()
			return err
		}
		log.Infow("startup", "status", "registered with master", "master", cfg.Network.MasterURL)
	}

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown API started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
