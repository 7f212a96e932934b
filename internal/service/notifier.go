package service

import (
	"context"
	"encoding/json"

	"backend/internal/cache"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Stock event names pushed over the websocket hub.
const (
	EventPurchaseRecorded = "purchase_recorded"
	EventPurchaseEdited   = "purchase_edited"
	EventPurchaseDeleted  = "purchase_deleted"
	EventSaleRecorded     = "sale_recorded"
	EventSaleReturned     = "sale_returned"
	EventStockTransferred = "stock_transferred"
	EventTransferEdited   = "transfer_edited"
	EventTransferDeleted  = "transfer_deleted"
	EventStockAdjusted    = "stock_adjusted"
	EventStockUpserted    = "stock_upserted"
	EventStockDeleted     = "stock_deleted"
)

// StockEvent is the websocket payload sent after a committed stock mutation.
type StockEvent struct {
	Event     string                 `json:"event"`
	ShopID    string                 `json:"shop_id"`
	ProductID string                 `json:"product_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Notifier fans committed stock mutations out to websocket subscribers and
// drops the affected shop's cached reports. Mutation services call it after
// the transaction commits, never inside it.
type Notifier interface {
	StockChanged(ctx context.Context, event StockEvent)
}

type notifier struct {
	hub   *ws.Hub
	cache cache.ReportCache
}

func NewNotifier(hub *ws.Hub, reportCache cache.ReportCache) Notifier {
	return &notifier{hub: hub, cache: reportCache}
}

func (n *notifier) StockChanged(ctx context.Context, event StockEvent) {
	n.cache.InvalidateShop(ctx, event.ShopID)

	if n.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", event.Event).Msg("failed to marshal stock event")
		return
	}
	select {
	case n.hub.Broadcast <- payload:
	default:
		log.Warn().Str("event", event.Event).Msg("websocket broadcast channel full, dropping event")
	}
}

func shopEvent(event string, shopID uuid.UUID, productID uuid.UUID, data map[string]interface{}) StockEvent {
	return StockEvent{
		Event:     event,
		ShopID:    shopID.String(),
		ProductID: productID.String(),
		Data:      data,
	}
}
