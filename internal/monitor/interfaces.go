package monitor

import (
	"context"

	"github.com/pauljones0/stockwatch/internal/models"
	"github.com/pauljones0/stockwatch/internal/notifier"
)

// InventoryFetcher abstracts the inventory HTTP client.
type InventoryFetcher interface {
	FetchInventory(ctx context.Context, url string) (models.ProductInventory, error)
}

// StoreResolver abstracts composite-code resolution.
type StoreResolver interface {
	Resolve(code string) (models.StoreSelection, error)
}

// AlertDispatcher abstracts the notification layer and the two switches
// gating it.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, oldStatus, newStatus string)
	Authorize(p notifier.Permission)
	Authorized() bool
	SetSoundEnabled(enabled bool)
	SoundEnabled() bool
	BindStorefront(fn func() string)
}
