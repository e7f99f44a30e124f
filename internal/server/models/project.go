package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	ProjectPending    = "PENDING"
	ProjectInProgress = "IN_PROGRESS"
	ProjectCompleted  = "COMPLETED"

	BidSubmitted = "SUBMITTED"
	BidSelected  = "SELECTED"
	BidRejected  = "REJECTED"
	BidCompleted = "COMPLETED"
)

type Project struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BudgetMin   decimal.Decimal `json:"budgetMin"`
	BudgetMax   decimal.Decimal `json:"budgetMax"`
	Deadline    string          `json:"deadline"`
	Status      string          `json:"status"`
	BuyerID     string          `json:"buyerId"`
	SellerID    *string         `json:"sellerId"`
	SelectedBid *string         `json:"selectedBid,omitempty"`
	DocumentKey *string         `json:"documentKey,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Bids        []Bid           `json:"bids"`
}

type Bid struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"projectId"`
	SellerID      string          `json:"sellerId"`
	SellerName    string          `json:"sellerName,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	EstimatedTime string          `json:"estimatedTime"`
	Message       string          `json:"message"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}
