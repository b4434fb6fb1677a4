package http

// CreatePutWallRequest represents the request body for creating a put wall
type CreatePutWallRequest struct {
	SlotIDs  []string `json:"slotIds" binding:"required,min=1,unique,dive,slot_id"`
	Location string   `json:"location" binding:"required"`
}

// AssignOrderRequest represents the request body for assigning an order to a slot
type AssignOrderRequest struct {
	OrderID       string         `json:"orderId" binding:"required"`
	RequiredItems map[string]int `json:"requiredItems" binding:"required,min=1,dive,keys,sku_code,endkeys,gt=0"`
}

// ScanItemRequest represents the request body for a sortation scan.
// Quantity defaults to 1.
type ScanItemRequest struct {
	SKU      string `json:"sku" binding:"required,sku_code"`
	Quantity int    `json:"quantity" binding:"omitempty,gt=0"`
}

// ConfirmPutRequest represents the request body for confirming a put.
// PutID defaults to the Idempotency-Key header.
type ConfirmPutRequest struct {
	SKU      string `json:"sku" binding:"required,sku_code"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	PutID    string `json:"putId" binding:"omitempty,max=255"`
}
