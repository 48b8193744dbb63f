package relay

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"babel.town/youdao"
)

// Language pair used when the client supplies no from/to parameters.
const (
	DefaultFrom = "zh-CHS"
	DefaultTo   = "en-US"
)

// Config carries the relay settings for the whole process. It is
// immutable after construction and passed in explicitly; nothing here
// reads global state.
type Config struct {
	Credentials youdao.Credentials
	DefaultFrom string
	DefaultTo   string
}

type dialFunc func(ctx context.Context, url string, logger *log.Logger) (upstream, error)

// Handler accepts client WebSocket connections and runs one relay
// session per connection.
type Handler struct {
	cfg      Config
	logger   *log.Logger
	upgrader websocket.Upgrader
	dial     dialFunc
}

func NewHandler(cfg Config, logger *log.Logger) *Handler {
	if cfg.DefaultFrom == "" {
		cfg.DefaultFrom = DefaultFrom
	}
	if cfg.DefaultTo == "" {
		cfg.DefaultTo = DefaultTo
	}
	return &Handler{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		dial: func(ctx context.Context, url string, logger *log.Logger) (upstream, error) {
			return youdao.Dial(ctx, url, logger)
		},
	}
}

// Routes mounts the relay endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ws/translate", h.handleTranslate)
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	client, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade client socket", "error", err)
		return
	}
	defer client.Close()

	from := r.URL.Query().Get("from")
	if from == "" {
		from = h.cfg.DefaultFrom
	}
	to := r.URL.Query().Get("to")
	if to == "" {
		to = h.cfg.DefaultTo
	}

	logger := h.logger.With("session", uuid.NewString())
	logger.Info("session started", "from", from, "to", to)

	url := youdao.BuildWebSocketURL(h.cfg.Credentials, from, to)
	up, err := h.dial(r.Context(), url, logger)
	if err != nil {
		logger.Error("connect translation service", "error", err)
		return
	}

	NewSession(client, up, logger).Run()
}
