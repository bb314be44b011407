package dto

// SettlementListQuery filters the settlement audit listing.
type SettlementListQuery struct {
	OrderID  string `form:"order_id" binding:"omitempty,max=100,safe_id"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SettlementListResponse is the paginated audit listing.
type SettlementListResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// OrderParam binds the :order_id path segment.
type OrderParam struct {
	OrderID string `uri:"order_id" binding:"required,max=100,safe_id"`
}
