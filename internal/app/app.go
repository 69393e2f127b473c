package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/auth"
	"github.com/vovakirdan/marketwire/internal/config"
	"github.com/vovakirdan/marketwire/internal/conversation"
	"github.com/vovakirdan/marketwire/internal/events/kafka"
	"github.com/vovakirdan/marketwire/internal/relay"
	"github.com/vovakirdan/marketwire/internal/service/listings"
	"github.com/vovakirdan/marketwire/internal/session"
	"github.com/vovakirdan/marketwire/internal/store"
	"github.com/vovakirdan/marketwire/internal/store/sqlite"
	"github.com/vovakirdan/marketwire/internal/supportchat"
	transporthttp "github.com/vovakirdan/marketwire/internal/transport/http"
	"github.com/vovakirdan/marketwire/internal/transport/ws"
)

// App wires together the domain services and the transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *relay.Hub
	sessions        *session.Manager
	store           store.Store
	publisher       *kafka.Publisher
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	var (
		publisher     *kafka.Publisher
		listingEvents listings.Publisher = listings.NopPublisher{}
	)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		listingEvents = publisher
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing listing events")
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.SessionTTL,
	}
	authService := auth.NewService(jwtConfig)

	relayURL := cfg.RelayURL
	sessions := session.NewManager(func(id session.Identity) conversation.Transport {
		return ws.NewDialer(relayURL, id.Token, logger)
	}, cfg.ConnectTimeout, logger)

	support := supportchat.NewBridge(logger)
	hub := relay.NewHub(logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Hub:          hub,
		Auth:         authService,
		Listings:     listings.New(st, listingEvents, logger),
		Sessions:     sessions,
		Support:      support,
		SupportQueue: supportchat.NewQueue(cfg.SupportQueueSize),
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		sessions:        sessions,
		store:           st,
		publisher:       publisher,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup(stopHub)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Conversations dial this server's relay; close them while it still answers.
		a.sessions.Close()
		stopHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup(stopHub)
			return err
		}

		a.cleanup(stopHub)
		return <-serverErr
	}
}

// cleanup releases sessions, the relay, the event publisher and the store.
func (a *App) cleanup(stopHub context.CancelFunc) {
	a.sessions.Close()
	stopHub()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close kafka publisher")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
