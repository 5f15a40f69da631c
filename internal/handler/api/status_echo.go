package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	models "github.com/MiguelT18/trading-bot/internal/domain/models"
	"github.com/MiguelT18/trading-bot/internal/service/ratelimit"
	xhttp "github.com/MiguelT18/trading-bot/pkg/http"
	xlogger "github.com/MiguelT18/trading-bot/pkg/logger"
)

// LoopStatusProvider exposes the trading loop's state.
type LoopStatusProvider interface {
	Status() models.LoopStatus
}

// EvaluationReader lists recent evaluations, newest first.
type EvaluationReader interface {
	Recent(limit int, decision string) []models.Evaluation
}

// PendingCounter reports intents waiting for redelivery.
type PendingCounter interface {
	Pending() int
}

// ConnectionChecker reports whether a long-lived feed connection is up.
type ConnectionChecker interface {
	IsConnected() bool
}

type StatusHandlerOption func(*StatusEchoHandler)

// WithFeed reports the feed type and, when conn is non-nil, its connection state.
func WithFeed(feedType string, conn ConnectionChecker) StatusHandlerOption {
	return func(h *StatusEchoHandler) {
		h.feedType = feedType
		h.conn = conn
	}
}

func WithPending(p PendingCounter) StatusHandlerOption {
	return func(h *StatusEchoHandler) {
		h.pending = p
	}
}

// WithRateLimit applies l per client IP to the /api group.
func WithRateLimit(l *ratelimit.Limiter) StatusHandlerOption {
	return func(h *StatusEchoHandler) {
		h.limiter = l
	}
}

// StatusEchoHandler serves the read-only status API.
type StatusEchoHandler struct {
	logger   *xlogger.Logger
	loop     LoopStatusProvider
	journal  EvaluationReader
	feedType string
	conn     ConnectionChecker
	pending  PendingCounter
	limiter  *ratelimit.Limiter
}

func NewStatusEchoHandler(logger *xlogger.Logger, loop LoopStatusProvider, journal EvaluationReader, opts ...StatusHandlerOption) *StatusEchoHandler {
	h := &StatusEchoHandler{logger: logger, loop: loop, journal: journal}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *StatusEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	g := e.Group("/api")
	if h.limiter.Enabled() {
		g.Use(ratelimit.Middleware(h.limiter, func(c echo.Context) error {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
		}))
	}
	g.GET("/status", h.Status)
	g.GET("/evaluations", h.Evaluations)
}

func (h *StatusEchoHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Hello World")
}

// Health is 200 while the feed is usable and 503 once a connected feed drops.
func (h *StatusEchoHandler) Health(c echo.Context) error {
	if h.conn != nil && !h.conn.IsConnected() {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("feed disconnected"))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *StatusEchoHandler) Status(c echo.Context) error {
	res := models.StatusResponse{
		Loop: h.loop.Status(),
		Feed: models.FeedStatus{Type: h.feedType, Connected: true},
	}
	if h.conn != nil {
		res.Feed.Connected = h.conn.IsConnected()
	}
	if h.pending != nil {
		res.PendingIntents = h.pending.Pending()
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, res)
}

func (h *StatusEchoHandler) Evaluations(c echo.Context) error {
	req := &models.EvaluationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.journal == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("evaluation journal disabled"))
	}
	rows := h.journal.Recent(req.Limit, req.Decision)
	h.logger.Debug("evaluations listed",
		xlogger.Int("limit", req.Limit),
		xlogger.String("decision", req.Decision),
		xlogger.Int("rows", len(rows)))
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
