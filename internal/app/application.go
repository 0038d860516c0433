package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"liveboard/internal/api"
	"liveboard/internal/config"
	"liveboard/internal/hub"
	"liveboard/internal/live"
	"liveboard/internal/room"
	"liveboard/internal/store"
	"liveboard/internal/ws"
)

// Application coordinates all server components. Initialization follows
// dependency order: Store → Registry/Rooms/Live → Hub → API → HTTP.
type Application struct {
	config      *config.Config
	recordStore *store.Store
	registry    *ws.Registry
	rooms       *room.Table
	state       *live.State
	relayHub    *hub.Hub
	apiServer   *api.Server
	httpServer  *http.Server
}

// NewApplication builds an application from validated configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	recordStore, err := store.Open(store.Config{
		Path:            cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	registry := ws.NewRegistry()
	rooms := room.NewTable()
	state := live.NewState()

	relayHub := hub.NewHub(registry, rooms, state)

	apiServer := api.NewServer(state, rooms, registry, recordStore)

	wsHandler := ws.NewHandler(relayHub, ws.Options{
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		BufferSize:   cfg.WebSocket.BufferSize,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		recordStore: recordStore,
		registry:    registry,
		rooms:       rooms,
		state:       state,
		relayHub:    relayHub,
		apiServer:   apiServer,
		httpServer:  httpServer,
	}, nil
}

// Start begins serving. The hub starts first so event processing is live
// before the HTTP listener accepts connections.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting liveboard on %s", app.httpServer.Addr)

	if err := app.relayHub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		_ = app.relayHub.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("liveboard started")
		return nil
	case <-ctx.Done():
		_ = app.relayHub.Stop()
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: HTTP → Hub → Store.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down liveboard")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := app.relayHub.Stop(); err != nil {
		log.Printf("Hub shutdown error: %v", err)
	}

	if err := app.recordStore.Close(); err != nil {
		log.Printf("Record store shutdown error: %v", err)
	}

	log.Printf("liveboard shutdown complete")
	return nil
}

// Addr returns the server address for external connections.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
