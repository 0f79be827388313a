package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/scan"
)

const (
	msgProductNotFound = "product not found"
	msgCatalogDown     = "catalog unavailable"
	msgCannotVerify    = "unable to verify code"
)

type Handler struct {
	catalog  *catalog.Service
	resolver *scan.Resolver
	carts    *cart.Registry
	events   events.Emitter
	logger   *zap.Logger
}

// NewHandler builds the storefront handlers. A nil emitter disables event
// publishing.
func NewHandler(src catalog.Source, carts *cart.Registry, em events.Emitter, logger *zap.Logger) *Handler {
	if em == nil {
		em = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:  catalog.NewService(src),
		resolver: scan.NewResolver(src),
		carts:    carts,
		events:   em,
		logger:   logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, middleware.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

// writeCatalogError maps catalog failures onto HTTP statuses.
func (h *Handler) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, msgProductNotFound)
	case errors.Is(err, catalog.ErrUnavailable):
		h.logger.Warn("catalog unavailable",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, msgCatalogDown)
	default:
		h.logger.Error("catalog request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
