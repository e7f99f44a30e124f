package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "PENDING"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
)

// ParseProjectStatus accepts the spellings seen on the wire: "IN_PROGRESS",
// "In Progress", "in-progress".
func ParseProjectStatus(s string) ProjectStatus {
	return ProjectStatus(normalizeStatus(s))
}

func (s *ProjectStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = ParseProjectStatus(v)
	return nil
}

// BidStatus is the state of a single bid.
type BidStatus string

const (
	BidSubmitted BidStatus = "SUBMITTED"
	BidSelected  BidStatus = "SELECTED"
	BidRejected  BidStatus = "REJECTED"
	BidCompleted BidStatus = "COMPLETED"
)

// ParseBidStatus maps legacy names onto the current set: "accepted" is a
// selected bid, "pending" a submitted one.
func ParseBidStatus(s string) BidStatus {
	switch v := normalizeStatus(s); v {
	case "ACCEPTED":
		return BidSelected
	case "PENDING":
		return BidSubmitted
	default:
		return BidStatus(v)
	}
}

func (s *BidStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = ParseBidStatus(v)
	return nil
}

func normalizeStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Project is a buyer's posted job.
type Project struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BudgetMin   decimal.Decimal `json:"budgetMin"`
	BudgetMax   decimal.Decimal `json:"budgetMax"`
	Deadline    string          `json:"deadline"`
	Status      ProjectStatus   `json:"status"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
	BuyerID     string          `json:"buyerId"`
	SellerID    *string         `json:"sellerId"`
	SelectedBid *string         `json:"selectedBid,omitempty"`
	Bids        []Bid           `json:"bids,omitempty"`
}

// Bid is a seller's offer on a project.
type Bid struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"projectId"`
	SellerID      string          `json:"sellerId"`
	SellerName    string          `json:"sellerName,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	EstimatedTime string          `json:"estimatedTime"`
	Message       string          `json:"message"`
	Status        BidStatus       `json:"status"`
	CreatedAt     string          `json:"createdAt,omitempty"`
}

// UnmarshalJSON also reads "bidStatus", which the profile endpoint uses
// instead of "status".
func (b *Bid) UnmarshalJSON(data []byte) error {
	type plain Bid
	var v struct {
		plain
		BidStatus *BidStatus `json:"bidStatus"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = Bid(v.plain)
	if b.Status == "" && v.BidStatus != nil {
		b.Status = *v.BidStatus
	}
	if b.Status == "" {
		b.Status = BidSubmitted
	}
	return nil
}

// NewProject is the create-project form.
type NewProject struct {
	Title       string
	Description string
	BudgetMin   decimal.Decimal
	BudgetMax   decimal.Decimal
	Deadline    string
}

func (p NewProject) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "", strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("%w: title and description are required", common.ErrValidation)
	case !p.BudgetMin.IsPositive(), !p.BudgetMax.IsPositive():
		return fmt.Errorf("%w: budget must be positive", common.ErrValidation)
	case p.BudgetMin.GreaterThan(p.BudgetMax):
		return fmt.Errorf("%w: minimum budget exceeds maximum", common.ErrValidation)
	}
	if _, err := ParseDeadline(p.Deadline); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}

// ParseDeadline accepts a calendar date or an RFC 3339 timestamp.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("deadline %q is not a date (YYYY-MM-DD)", s)
}

// NewBid is the submit-bid form.
type NewBid struct {
	ProjectID     string
	Amount        decimal.Decimal
	EstimatedTime string
	Message       string
}

func (b NewBid) Validate() error {
	switch {
	case b.ProjectID == "":
		return fmt.Errorf("%w: project is required", common.ErrValidation)
	case !b.Amount.IsPositive():
		return fmt.Errorf("%w: bid amount must be positive", common.ErrValidation)
	case strings.TrimSpace(b.EstimatedTime) == "", strings.TrimSpace(b.Message) == "":
		return fmt.Errorf("%w: please fill in all required fields", common.ErrValidation)
	}
	return nil
}

// Document is a deliverable attached to a completion request.
type Document struct {
	Name    string
	Content []byte
}

// DashboardStats counts projects per status.
type DashboardStats struct {
	Pending    int
	InProgress int
	Completed  int
}

func Stats(projects []Project) DashboardStats {
	var s DashboardStats
	for _, p := range projects {
		switch p.Status {
		case ProjectPending:
			s.Pending++
		case ProjectInProgress:
			s.InProgress++
		case ProjectCompleted:
			s.Completed++
		}
	}
	return s
}
