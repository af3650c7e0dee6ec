package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/stream"
	"github.com/matt-g-everett/iconanim/svg"
	"github.com/matt-g-everett/iconanim/theme"
)

type client struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// Api serves the bound icon, its CSS animations, transport endpoints and a
// websocket stream of frames.
type Api struct {
	synth    *stream.Synthesizer
	bridge   *stream.Bridge
	palette  theme.Palette
	log      *logger.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*client
}

// NewApi creates an Api listening on addr.
func NewApi(addr string, synth *stream.Synthesizer, bridge *stream.Bridge, palette theme.Palette, log *logger.Logger) *Api {
	a := new(Api)
	a.synth = synth
	a.bridge = bridge
	a.palette = palette
	a.log = log
	a.clients = make(map[*websocket.Conn]*client)
	a.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Dashboards are served from other origins.
			return true
		},
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a
}

// Handler returns the routes of the Api.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /icon.svg", a.handleIcon)
	mux.HandleFunc("GET /icon.css", a.handleCSS)
	mux.HandleFunc("GET /state", a.handleState)
	mux.HandleFunc("POST /command", a.handleCommand)
	mux.HandleFunc("POST /seek", a.handleSeek)
	for _, op := range []string{"play", "pause", "trigger", "rebuild", "open", "close"} {
		mux.HandleFunc("POST /"+op, a.handleOp(op))
	}
	mux.HandleFunc("GET /ws", a.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Serve listens until ctx is done, then shuts the server down.
func (a *Api) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		a.log.WithFields(map[string]any{"addr": a.server.Addr}).Info("listening")
		errc <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.closeClients()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (a *Api) handleIcon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := a.synth.WriteGraphic(w); err != nil {
		a.log.Error(err, "write icon")
	}
}

func (a *Api) handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	io.WriteString(w, a.palette.CSS())
	io.WriteString(w, a.synth.KeyframesCSS())
}

func (a *Api) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.synth.State())
}

func (a *Api) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd, err := stream.ParseCommand(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.apply(w, cmd)
}

func (a *Api) handleSeek(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.ParseFloat(r.URL.Query().Get("position"), 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad position: %v", err), http.StatusBadRequest)
		return
	}
	a.apply(w, stream.Command{Op: "seek", Position: &position})
}

func (a *Api) handleOp(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.apply(w, stream.Command{Op: op})
	}
}

func (a *Api) apply(w http.ResponseWriter, cmd stream.Command) {
	if err := a.bridge.Handle(cmd); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, stream.ErrUnknownOp), errors.Is(err, stream.ErrMissingField), errors.Is(err, svg.ErrInvalidName):
			status = http.StatusBadRequest
		case errors.Is(err, svg.ErrIconNotFound):
			status = http.StatusNotFound
		case errors.Is(err, stream.ErrInvalidOptions):
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, a.synth.State())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
