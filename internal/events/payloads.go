package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/scan"
)

type ScanResolvedPayload struct {
	Code       string    `json:"code"`
	Found      bool      `json:"found"`
	ProductID  string    `json:"productId,omitempty"`
	Target     string    `json:"target,omitempty"`
	Error      string    `json:"error,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

type ScanResolvedEvent struct {
	EventEnvelope
	Payload ScanResolvedPayload `json:"payload"`
}

// NewScanResolvedPayload describes a resolution outcome. A non-nil err
// means the catalog could not be consulted.
func NewScanResolvedPayload(raw string, res scan.Result, err error, at time.Time) ScanResolvedPayload {
	p := ScanResolvedPayload{Code: raw, ResolvedAt: at}
	switch {
	case err != nil:
		p.Error = err.Error()
	case res.Found():
		p.Found = true
		p.ProductID = res.Product.ID.String()
		p.Target = res.Target()
	}
	return p
}

type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type CartUpdatedPayload struct {
	SessionID string     `json:"sessionId"`
	Version   uint64     `json:"version"`
	Items     []CartLine `json:"items"`
	Total     string     `json:"totalAmount"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartUpdatedEvent struct {
	EventEnvelope
	Payload CartUpdatedPayload `json:"payload"`
}

func NewCartUpdatedPayload(sessionID string, snap cart.Snapshot, at time.Time) CartUpdatedPayload {
	p := CartUpdatedPayload{
		SessionID: sessionID,
		Version:   snap.Version,
		Items:     make([]CartLine, 0, len(snap.Items)),
		Total:     snap.Total.String(),
		UpdatedAt: at,
	}
	for _, li := range snap.Items {
		p.Items = append(p.Items, CartLine{
			ProductID: li.ProductID.String(),
			Quantity:  li.Quantity,
			Price:     li.Price.String(),
		})
	}
	return p
}
