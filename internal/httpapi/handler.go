package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/orderqueue/internal/orders"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	headerRequestID     = "X-Request-ID"
	defaultMaxBodyBytes = 1 << 20
)

// OrderService is what the API needs from orders.Service.
type OrderService interface {
	CreateOrder(ctx context.Context, input orders.NewOrder) (*orders.Order, error)
	PublishEvent(ctx context.Context, event interface{}) error
	ListOrders(ctx context.Context) ([]orders.Order, error)
}

// BrokerStatus reports whether the broker session is up. *rabbit.ConnectionManager implements it.
type BrokerStatus interface {
	IsConnected() bool
}

// Pinger checks the database. postgres.Client implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RequestMetrics records per-endpoint request metrics. metrics.MetricsCollector implements it.
type RequestMetrics interface {
	IncrementRequests(endpoint, status string)
	RecordRequestDuration(start time.Time, endpoint string)
}

// Logger is the logging contract of this package, satisfied by orderqueue/v1/logger.Logger.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Handler serves the order API.
type Handler struct {
	orders       OrderService
	broker       BrokerStatus
	db           Pinger
	metrics      RequestMetrics
	logger       Logger
	maxBodyBytes int64
}

// NewHandler builds the API handler. db and metrics may be nil.
func NewHandler(cfg Config, svc OrderService, broker BrokerStatus, db Pinger, metrics RequestMetrics, logger Logger) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Handler{
		orders:       svc,
		broker:       broker,
		db:           db,
		metrics:      metrics,
		logger:       logger,
		maxBodyBytes: maxBody,
	}
}

// response is the JSON body of every reply.
type response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Broker   bool   `json:"broker"`
	Database bool   `json:"database"`
}

// Routes returns the API mux wrapped with request ids, metrics and tracing.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.handle(mux, "POST /orders", "/orders", h.createOrder)
	h.handle(mux, "GET /orders", "/orders", h.listOrders)
	h.handle(mux, "POST /events", "/events", h.publishEvent)
	h.handle(mux, "GET /healthz", "/healthz", h.health)

	return otelhttp.NewHandler(withRequestID(mux), "orderqueue.http")
}

func (h *Handler) handle(mux *http.ServeMux, pattern, endpoint string, fn http.HandlerFunc) {
	mux.Handle(pattern, h.instrument(endpoint, fn))
}

// instrument records the request count and duration of endpoint.
func (h *Handler) instrument(endpoint string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if h.metrics != nil {
			h.metrics.IncrementRequests(endpoint, strconv.Itoa(rec.status))
			h.metrics.RecordRequestDuration(start, endpoint)
		}
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input orders.NewOrder
	if err := h.decode(w, r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid request body", Data: err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(ctx, input)
	switch {
	case errors.Is(err, orders.ErrInvalidOrder):
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid order", Data: err.Error()})
	case err != nil:
		h.logger.ErrorWithContext(ctx, "Failed to create order", err, map[string]interface{}{
			"request_id": w.Header().Get(headerRequestID),
		})
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to create order", Data: err.Error()})
	default:
		writeJSON(w, http.StatusCreated, response{Message: "Order created successfully", Data: order})
	}
}

// listOrders returns every order, newest first.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.orders.ListOrders(ctx)
	if err != nil {
		h.logger.ErrorWithContext(ctx, "Failed to list orders", err, map[string]interface{}{
			"request_id": w.Header().Get(headerRequestID),
		})
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to list orders", Data: err.Error()})
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, response{Message: "Orders retrieved", Data: list})
}

func (h *Handler) publishEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event json.RawMessage
	if err := h.decode(w, r, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid request body", Data: err.Error()})
		return
	}

	if err := h.orders.PublishEvent(ctx, event); err != nil {
		h.logger.ErrorWithContext(ctx, "Failed to queue event", err, map[string]interface{}{
			"request_id": w.Header().Get(headerRequestID),
		})
		writeJSON(w, http.StatusInternalServerError, response{Message: "Failed to queue event", Data: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, response{Message: "Event queued"})
}

// health is 200 when the broker session is up and the database answers.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Broker:   h.broker.IsConnected(),
		Database: true,
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Database = h.db.Ping(ctx) == nil
	}

	status := http.StatusOK
	resp.Status = "ok"
	if !resp.Broker || !resp.Database {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}
	writeJSON(w, status, resp)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// withRequestID echoes the caller's X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
