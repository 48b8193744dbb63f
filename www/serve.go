package www

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"babel.town/relay"
)

//go:embed static/index.html
var indexHTML []byte

// Router builds the HTTP routes: the browser UI at / and the relay
// WebSocket endpoint mounted by h.
func Router(h *relay.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	h.Routes(r)

	return r
}

func Serve(port int, h *relay.Handler, logger *log.Logger) error {
	logger.Info("http", "url", fmt.Sprintf("http://localhost:%d", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), Router(h))
}
