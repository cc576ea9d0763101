package models

// InventoryResponse mirrors the direct-sales-shop product endpoint body.
// Only the fields the monitor reads are declared.
type InventoryResponse struct {
	Products ProductList `json:"products"`
}

type ProductList struct {
	Product []ProductEntity `json:"product"`
}

type ProductEntity struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	DisplayName     string           `json:"displayName"`
	SKU             string           `json:"sku"`
	MaximumQuantity int              `json:"maximumQuantity"`
	InventoryStatus *InventoryStatus `json:"inventoryStatus"`
}

type InventoryStatus struct {
	URI                        string `json:"uri"`
	ProductIsInStock           string `json:"productIsInStock"`
	RequestedQuantityAvailable string `json:"requestedQuantityAvailable"`
	Status                     string `json:"status"`
	StatusIsEstimated          string `json:"statusIsEstimated"`
}
