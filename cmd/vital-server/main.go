// Package main is the entry point for the GemeloVital simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/infra/storage"
	"github.com/MTorner/GemeloVital/server/internal/network"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/metrics"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
	"github.com/MTorner/GemeloVital/server/internal/session"
)

func main() {
	log.Println("[VITAL-SERVER] Initializing GemeloVital authoritative server...")

	appLogger := logger.NewLogger()
	cfg := tuning.DefaultConfig()

	appLogger.Info("Initializing SQLite database 'vital.db'...")
	db, err := storage.Open("vital.db", cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: %v", err)
		os.Exit(1)
	}
	journal := storage.NewActivityJournal(db)
	snapRepo := storage.NewSnapshotRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger)
	go hub.Run(ctx)

	appLogger.Info("Bootstrapping Session Manager...")
	manager := session.NewManager(cfg, journal, hub, appLogger)
	hub.AttachManager(manager)

	// Periodic session snapshot upsert. Snapshots are for inspection only;
	// simulation state is never restored across restarts.
	go func() {
		snapTicker := time.NewTicker(5 * time.Second)
		defer snapTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-snapTicker.C:
				manager.ForEach(func(s *session.Session) {
					stateJSON, err := s.Loop.Snapshot()
					if err != nil {
						return
					}
					st := s.Loop.State()
					_ = snapRepo.Upsert(ctx, storage.SessionSnapshot{
						SessionID: s.ID,
						UserID:    st.UserID,
						GameTime:  st.GameTime,
						StateJSON: string(stateJSON),
					})
				})
			}
		}
	}()

	// API routes
	http.HandleFunc("/api/session/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var profile body.UserProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			http.Error(w, "Invalid profile payload", http.StatusBadRequest)
			return
		}
		state, err := manager.CreateSession(ctx, profile)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state)
	})

	http.HandleFunc("/api/event/schedule", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			SessionID string                `json:"session_id"`
			Event     events.ScheduledEvent `json:"event"`
			Payload   json.RawMessage       `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		sess, err := manager.Get(req.SessionID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if req.Payload != nil {
			req.Event.Payload = req.Payload
		}
		accepted := sess.Loop.ScheduleEvent(req.Event)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "accepted": accepted})
	})

	http.HandleFunc("/api/session/state", func(w http.ResponseWriter, r *http.Request) {
		sess, err := manager.Get(r.URL.Query().Get("session_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		payload, err := sess.Loop.Snapshot()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	})

	http.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		rows, err := journal.GetBySession(r.Context(), r.URL.Query().Get("session_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	})

	http.HandleFunc("/metrics", metrics.Handler())
	http.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, cfg, w, r, appLogger)
	})

	go func() {
		log.Println("[VITAL-SERVER] HTTP API & WS Server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[VITAL-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[VITAL-SERVER] Shutting down...")
	manager.CloseAll()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests from the dashboard dev server
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, cfg *tuning.Config, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := network.NewClient(hub, conn, sessionID, cfg.ClientSendBuffer)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
