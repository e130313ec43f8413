package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

type MerchantStatus string

const (
	MerchantPending   MerchantStatus = "PENDING"
	MerchantApproved  MerchantStatus = "APPROVED"
	MerchantSuspended MerchantStatus = "SUSPENDED"
)

type ProductStatus string

const (
	ProductDraft     ProductStatus = "DRAFT"
	ProductPending   ProductStatus = "PENDING"
	ProductPublished ProductStatus = "PUBLISHED"
	ProductRejected  ProductStatus = "REJECTED"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

type User struct {
	ID           string `gorm:"primaryKey;size:36;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	Name         string `gorm:"size:128"`
	Role         Role   `gorm:"size:16;index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Merchant struct {
	ID             string         `gorm:"primaryKey;size:36;not null"`
	OwnerUserID    string         `gorm:"size:36;index;not null"`
	StoreName      string         `gorm:"size:128;not null"`
	Slug           string         `gorm:"size:128;uniqueIndex;not null"`
	Status         MerchantStatus `gorm:"size:16;index;not null"`
	CommissionRate float64        `gorm:"not null;default:0.2"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID       string  `gorm:"primaryKey;size:36;not null"`
	Name     string  `gorm:"size:128;not null"`
	Slug     string  `gorm:"size:128;uniqueIndex;not null"`
	ParentID *string `gorm:"size:36;index"`
}

type Product struct {
	ID          string        `gorm:"primaryKey;size:36;not null"`
	MerchantID  string        `gorm:"size:36;index;not null"`
	CategoryID  string        `gorm:"size:36;index"`
	Title       string        `gorm:"size:255;not null"`
	Description string        `gorm:"type:text"`
	Price       float64       `gorm:"not null"`
	Currency    string        `gorm:"size:8;not null"`
	Stock       int32         `gorm:"not null"`
	Status      ProductStatus `gorm:"size:16;index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Address struct {
	ID         string `gorm:"primaryKey;size:36;not null"`
	UserID     string `gorm:"size:36;index;not null"`
	FullName   string `gorm:"size:128"`
	Line1      string `gorm:"size:255"`
	Line2      string `gorm:"size:255"`
	City       string `gorm:"size:128"`
	PostalCode string `gorm:"size:32"`
	Country    string `gorm:"size:64"`
	CreatedAt  time.Time
}

type Order struct {
	ID                     string      `gorm:"primaryKey;size:36;not null"`
	UserID                 string      `gorm:"size:36;index;not null"`
	AddressID              string      `gorm:"size:36"`
	GrandTotal             float64     `gorm:"not null"`
	Currency               string      `gorm:"size:8;not null"`
	Status                 OrderStatus `gorm:"size:16;index;not null"`
	PaymentStatus          string      `gorm:"size:32;not null"`
	EmailNotificationsSent bool        `gorm:"not null;default:false"`
	CreatedAt              time.Time
	UpdatedAt              time.Time

	SubOrders []SubOrder `gorm:"foreignKey:OrderID"`
}

type SubOrder struct {
	ID           string      `gorm:"primaryKey;size:36;not null"`
	OrderID      string      `gorm:"size:36;index;not null"`
	MerchantID   string      `gorm:"size:36;index;not null"`
	Subtotal     float64     `gorm:"not null"`
	Commission   float64     `gorm:"not null"`
	PayoutAmount float64     `gorm:"not null"`
	Status       OrderStatus `gorm:"size:16;index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []OrderItem `gorm:"foreignKey:SubOrderID"`
}

// OrderItem is an immutable price snapshot taken at purchase time.
type OrderItem struct {
	ID         string  `gorm:"primaryKey;size:36;not null"`
	SubOrderID string  `gorm:"size:36;index;not null"`
	OrderID    string  `gorm:"size:36;index;not null"`
	ProductID  string  `gorm:"size:36;index;not null"`
	Title      string  `gorm:"size:255"`
	UnitPrice  float64 `gorm:"not null"`
	Quantity   int32   `gorm:"not null"`
	Currency   string  `gorm:"size:8;not null"`
	CreatedAt  time.Time
}

// Payment is unique per gateway transaction. The unique index on
// TransactionID is what makes confirm idempotent: a second confirm for the
// same payment intent cannot insert a second row.
type Payment struct {
	ID            string  `gorm:"primaryKey;size:36;not null"`
	OrderID       string  `gorm:"size:36;index;not null"`
	TransactionID string  `gorm:"size:128;uniqueIndex;not null"`
	Provider      string  `gorm:"size:32;not null"`
	Amount        float64 `gorm:"not null"`
	Currency      string  `gorm:"size:8;not null"`
	Status        string  `gorm:"size:32;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PayoutBalance struct {
	MerchantID string  `gorm:"primaryKey;size:36;not null"`
	Available  float64 `gorm:"not null"`
	Pending    float64 `gorm:"not null"`
	Currency   string  `gorm:"size:8;not null"`
	UpdatedAt  time.Time
}

// PayoutTransaction is an append-only ledger entry.
type PayoutTransaction struct {
	ID         string  `gorm:"primaryKey;size:36;not null"`
	MerchantID string  `gorm:"size:36;index;not null"`
	SubOrderID string  `gorm:"size:36;index;not null"`
	Amount     float64 `gorm:"not null"`
	Type       string  `gorm:"size:32;not null"` // SALE_CREDIT
	CreatedAt  time.Time
}

type TermsVersion struct {
	ID          string `gorm:"primaryKey;size:36;not null"`
	Version     string `gorm:"size:32;uniqueIndex;not null"`
	Body        string `gorm:"type:text"`
	Active      bool   `gorm:"index;not null"`
	PublishedAt time.Time
}

type TermsAcceptance struct {
	ID             string `gorm:"primaryKey;size:36;not null"`
	UserID         string `gorm:"size:36;uniqueIndex:idx_user_terms;not null"`
	TermsVersionID string `gorm:"size:36;uniqueIndex:idx_user_terms;not null"`
	AcceptedAt     time.Time
	IP             string `gorm:"size:64"`
}

type Notification struct {
	ID              string `gorm:"primaryKey;size:36;not null"`
	RecipientUserID string `gorm:"size:36;index;not null"`
	Type            string `gorm:"size:32;not null"`
	Title           string `gorm:"size:255"`
	Body            string `gorm:"type:text"`
	Read            bool   `gorm:"not null;default:false"`
	CreatedAt       time.Time
}

// WebhookEvent dedups gateway webhook redeliveries by event id.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type Setting struct {
	Key       string `gorm:"primaryKey;size:64;not null"`
	Value     string `gorm:"size:1024"`
	UpdatedAt time.Time
}
