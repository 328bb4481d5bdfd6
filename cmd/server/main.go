package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/pixeldraft/internal/asset"
	"github.com/inamate/pixeldraft/internal/auth"
	"github.com/inamate/pixeldraft/internal/canvas"
	"github.com/inamate/pixeldraft/internal/collab"
	"github.com/inamate/pixeldraft/internal/config"
	"github.com/inamate/pixeldraft/internal/db"
	"github.com/inamate/pixeldraft/internal/engine"
	"github.com/inamate/pixeldraft/internal/export"
	"github.com/inamate/pixeldraft/internal/hittest"
	mw "github.com/inamate/pixeldraft/internal/middleware"
	"github.com/inamate/pixeldraft/internal/scene"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshots are optional; the scene file is always written.
	var snapshots canvas.Snapshots
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		snapshots = db.NewSnapshotStore(pool)
	}

	svc := canvas.NewService(scene.NewFileStore(cfg.SceneFile), snapshots, canvas.Options{
		Engine: engine.Options{
			Width:    cfg.CanvasWidth,
			Height:   cfg.CanvasHeight,
			GridStep: cfg.GridStep,
			Tolerance: hittest.Tolerance{
				Min:     cfg.HitMinTolerance,
				Epsilon: cfg.HitEpsilon,
			},
		},
	})
	if err := svc.Open(ctx, cfg.SeedSample); err != nil {
		slog.Error("open scene", "file", cfg.SceneFile, "error", err)
		os.Exit(1)
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	hub := collab.NewHub(svc)
	svc.SetPublisher(hub)
	go hub.Run(hubCtx)

	var authSvc *auth.Service
	if cfg.OperatorPassword != "" {
		authSvc, err = auth.NewService(cfg.OperatorPassword, cfg.JWTSecret)
		if err != nil {
			slog.Error("init auth", "error", err)
			os.Exit(1)
		}
	}

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(svc, assetHandler)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if authSvc != nil {
		r.HandleFunc("/auth/login", auth.NewHandler(authSvc).Login).Methods("POST")
	}

	// Exported frames
	r.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("GET")
	r.Handle("/assets/{assetId}", withAuth(authSvc, assetHandler.HandleDelete)).Methods("DELETE")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	if authSvc != nil {
		api.Use(authSvc.MutationMiddleware)
	}
	canvas.NewHandler(svc).Routes(api)

	// WebSocket endpoint
	origins := originPatterns(cfg.Origins())
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authSvc, origins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		stopHub()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := svc.Save(shutdownCtx); err != nil {
			slog.Error("final save", "error", err)
		}
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "scene", cfg.SceneFile, "snapshots", snapshots != nil, "auth", authSvc != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// withAuth guards a single route when an operator password is configured.
func withAuth(authSvc *auth.Service, h http.HandlerFunc) http.Handler {
	if authSvc == nil {
		return h
	}
	return authSvc.MutationMiddleware(h)
}

// originPatterns turns configured CORS origins into the host patterns the
// websocket handshake checks against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		out = append(out, o)
	}
	return out
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, origins []string) {
	userID := "anon-" + uuid.New().String()[:8]
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	// Viewers are anonymous unless a token is presented; a bad token is
	// rejected rather than downgraded.
	if token := r.URL.Query().Get("token"); token != "" && authSvc != nil {
		sub, err := authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = sub
		if displayName == "Anonymous" {
			displayName = sub
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
