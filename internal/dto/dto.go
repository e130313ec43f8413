package dto

import "marketplace-api/internal/model"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

type SplitRequest struct {
	Items     []*CheckoutItem `json:"items"`
	AddressID string          `json:"addressId"`
}

type SplitResponse struct {
	ClientSecret    string     `json:"clientSecret"`
	PaymentIntentID string     `json:"paymentIntentId"`
	SplitData       *SplitData `json:"splitData"`
}

// SplitData is the split plan embedded as payment-intent metadata. It is the
// single source of truth the confirm flow materializes the order from.
type SplitData struct {
	SubOrders  []*SplitSubOrder `json:"subOrders"`
	Subtotal   float64          `json:"subtotal"`
	Shipping   float64          `json:"shipping"`
	Tax        float64          `json:"tax"`
	GrandTotal float64          `json:"grandTotal"`
	Currency   string           `json:"currency"`
	AddressID  string           `json:"addressId,omitempty"`
}

type SplitSubOrder struct {
	MerchantID   string       `json:"merchantId"`
	Subtotal     float64      `json:"subtotal"`
	Commission   float64      `json:"commission"`
	PayoutAmount float64      `json:"payoutAmount"`
	Items        []*SplitItem `json:"items"`
}

type SplitItem struct {
	ProductID string  `json:"productId"`
	Quantity  int32   `json:"quantity"`
	Price     float64 `json:"price"`
	Title     string  `json:"title,omitempty"`
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmResponse struct {
	Success bool           `json:"success"`
	Order   *model.Order   `json:"order"`
	Payment *model.Payment `json:"payment"`
}

type CreateProductRequest struct {
	CategoryID  string  `json:"categoryId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Stock       int32   `json:"stock"`
	Submit      bool    `json:"submit"` // true moves DRAFT straight to PENDING review
}

type UpdateProductRequest struct {
	CategoryID  *string  `json:"categoryId"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int32   `json:"stock"`
	Submit      bool     `json:"submit"`
}

type ProductFilter struct {
	CategoryID string `query:"category"`
	MerchantID string `query:"merchant"`
	Search     string `query:"q"`
	Page       int    `query:"page"`
	PerPage    int    `query:"perPage"`
}

type CreateAddressRequest struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type RegisterMerchantRequest struct {
	StoreName string `json:"storeName"`
	Slug      string `json:"slug"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role"`
}

type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parentId"`
}

type PublishTermsRequest struct {
	Version string `json:"version"`
	Body    string `json:"body"`
}

type SettingsRequest map[string]string

type MerchantStats struct {
	TotalSubOrders int64   `json:"totalSubOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalPayout    float64 `json:"totalPayout"`
	TotalProducts  int64   `json:"totalProducts"`
}

type AdminStats struct {
	TotalUsers     int64   `json:"totalUsers"`
	TotalMerchants int64   `json:"totalMerchants"`
	TotalOrders    int64   `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

type PayoutSummary struct {
	Balance      *model.PayoutBalance       `json:"balance"`
	Transactions []*model.PayoutTransaction `json:"transactions"`
}
