package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/scan"
)

type scanRequest struct {
	Code string `json:"code"`
}

type scanResponse struct {
	ProductID string `json:"productId"`
	Target    string `json:"target"`
}

// scanNotFoundResponse echoes the scanned text so the client can show it.
type scanNotFoundResponse struct {
	middleware.ErrorResponse
	Code string `json:"code"`
}

// Scan resolves a code decoded on the client. A code that matches nothing
// and a catalog that could not be consulted are reported differently.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.resolver.Resolve(r.Context(), req.Code)
	h.publishScan(r.Context(), req.Code, res, err)

	switch {
	case err != nil:
		h.logger.Warn("scan lookup failed",
			zap.String("code", req.Code),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, msgCannotVerify)
	case !res.Found():
		writeJSON(w, http.StatusNotFound, scanNotFoundResponse{
			ErrorResponse: middleware.ErrorResponse{
				Error:         msgProductNotFound,
				CorrelationID: middleware.GetCorrelationID(r.Context()),
			},
			Code: req.Code,
		})
	default:
		writeJSON(w, http.StatusOK, scanResponse{
			ProductID: res.Product.ID.String(),
			Target:    res.Target(),
		})
	}
}

func (h *Handler) publishScan(ctx context.Context, code string, res scan.Result, err error) {
	meta := events.EventMeta{
		CorrelationID: middleware.GetCorrelationID(ctx),
		PartitionKey:  middleware.GetSessionID(ctx),
	}
	payload := events.NewScanResolvedPayload(code, res, err, time.Now().UTC())
	if perr := h.events.PublishScanResolved(ctx, meta, payload); perr != nil {
		h.logger.Warn("publish scan resolved failed", zap.Error(perr))
	}
}
