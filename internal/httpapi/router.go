package httpapi

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shpitdev/profile-finder/internal/ui"
	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
)

const defaultMaxUploadBytes = 10 << 20

// NewMux wires every route. Callers normally want NewHandler.
func NewMux(d Deps) *http.ServeMux {
	d = withDefaults(d)
	mux := http.NewServeMux()

	ph := PageHandler{
		Dispatcher:     d.Dispatcher,
		Store:          d.Store,
		MaxUploadBytes: d.MaxUploadBytes,
		Logger:         d.Logger,
		Version:        d.Version,
		Now:            d.Now,
	}
	mux.HandleFunc("/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Index,
	}))
	mux.HandleFunc("/submit", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Submit,
	}))
	mux.HandleFunc("/reset", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ph.Reset,
	}))

	eh := ExportHandler{Store: d.Store, Now: d.Now}
	mux.HandleFunc("/export.csv", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.CSV,
	}))

	hh := HealthHandler{Version: d.Version, Now: d.Now}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}

// NewHandler is NewMux behind the RequestID, Recover and AccessLog middleware.
func NewHandler(d Deps) http.Handler {
	d = withDefaults(d)
	return Chain(NewMux(d), RequestID, Recover(d.Logger), AccessLog(d.Logger))
}

func withDefaults(d Deps) Deps {
	if d.Store == nil {
		d.Store = ui.NewStore(schema.LayoutFlat)
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUploadBytes
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard, "", 0)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
