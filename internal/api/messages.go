package api

import "github.com/shopspring/decimal"

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

// Installment is one scheduled portion of a bill.
type Installment struct {
	ID     string          `json:"id"`
	Index  int             `json:"index"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
	PaidAt int64           `json:"paid_at,omitempty"`
}

// Bill is a payable amount with its installments.
type Bill struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	OpenAmount   decimal.Decimal `json:"open_amount"`
	InParts      bool            `json:"in_parts"`
	PartsCount   int             `json:"parts_count"`
	DueAt        int64           `json:"due_at,omitempty"`
	Installments []*Installment  `json:"installments"`
	Revision     int64           `json:"revision"`
	CreatedAt    int64           `json:"created_at"`
	UpdatedAt    int64           `json:"updated_at"`
}

// BudgetEntry is a recurring monthly income or fixed cost.
type BudgetEntry struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt int64           `json:"created_at"`
}

// BudgetSummary is the monthly budget picture.
type BudgetSummary struct {
	Income           decimal.Decimal `json:"income"`
	FixedCosts       decimal.Decimal `json:"fixed_costs"`
	OpenBills        decimal.Decimal `json:"open_bills"`
	PaidBills        decimal.Decimal `json:"paid_bills"`
	Available        decimal.Decimal `json:"available"`
	OpenInstallments int             `json:"open_installments"`
	ActiveBills      int             `json:"active_bills"`
}

// Auth

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Bills

type CreateBillRequest struct {
	Title       string           `json:"title"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	InParts     bool             `json:"in_parts"`
	PartsCount  int              `json:"parts_count"`
	DueAt       int64            `json:"due_at,omitempty"`
}

type CreateBillResponse struct {
	Bill *Bill `json:"bill"`
}

type GetBillRequest struct {
	BillID string `json:"bill_id"`
}

type GetBillResponse struct {
	Bill *Bill `json:"bill"`
}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []*Bill `json:"bills"`
}

// UpdateBillRequest replaces a bill's title, total and split. Paid
// installments are kept; the open ones are regenerated.
type UpdateBillRequest struct {
	BillID      string           `json:"bill_id"`
	Title       string           `json:"title"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	InParts     bool             `json:"in_parts"`
	PartsCount  int              `json:"parts_count"`
	DueAt       int64            `json:"due_at,omitempty"`
}

type UpdateBillResponse struct {
	Bill *Bill `json:"bill"`
}

type DeleteBillRequest struct {
	BillID string `json:"bill_id"`
}

type DeleteBillResponse struct{}

type EditInstallmentRequest struct {
	BillID        string           `json:"bill_id"`
	InstallmentID string           `json:"installment_id"`
	Amount        *decimal.Decimal `json:"amount"`
}

type EditInstallmentResponse struct {
	Bill *Bill `json:"bill"`
}

type PayInstallmentRequest struct {
	BillID        string `json:"bill_id"`
	InstallmentID string `json:"installment_id"`
}

type PayInstallmentResponse struct {
	Bill *Bill `json:"bill"`
}

type PayRemainingRequest struct {
	BillID string `json:"bill_id"`
}

type PayRemainingResponse struct {
	Bill *Bill `json:"bill"`
	// Changed is false when the bill was already settled.
	Changed bool `json:"changed"`
}

// Budget

type AddEntryRequest struct {
	Kind   string           `json:"kind"`
	Label  string           `json:"label"`
	Amount *decimal.Decimal `json:"amount"`
}

type AddEntryResponse struct {
	Entry *BudgetEntry `json:"entry"`
}

type ListEntriesRequest struct{}

type ListEntriesResponse struct {
	Entries []*BudgetEntry `json:"entries"`
}

type DeleteEntryRequest struct {
	EntryID string `json:"entry_id"`
}

type DeleteEntryResponse struct{}

type GetSummaryRequest struct{}

type GetSummaryResponse struct {
	Summary *BudgetSummary `json:"summary"`
}

// Feed

// Event types sent on a subscription stream.
const (
	EventSnapshot = "snapshot"
	EventUpsert   = "upsert"
	EventDelete   = "delete"
)

type SubscribeRequest struct {
	Collection string `json:"collection"`
}

// FeedEvent is one message on a subscription stream. The first event is
// always a snapshot holding the full collection; later events carry a single
// upserted record or the ID of a deleted one.
type FeedEvent struct {
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	Bills      []*Bill        `json:"bills,omitempty"`
	Entries    []*BudgetEntry `json:"entries,omitempty"`
	DeletedID  string         `json:"deleted_id,omitempty"`
}
