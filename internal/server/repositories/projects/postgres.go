package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/dbx"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectProject = `SELECT id, title, description, budget_min, budget_max, deadline, status,
	buyer_id, seller_id, selected_bid, document_key, created_at, updated_at FROM projects`

const selectBid = `SELECT b.id, b.project_id, b.seller_id, u.name, b.amount, b.estimated_time,
	b.message, b.status, b.created_at FROM bids b JOIN users u ON u.id = b.seller_id`

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {

	query :=
		`INSERT INTO projects (id, title, description, budget_min, budget_max, deadline, status, buyer_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Description, p.BudgetMin, p.BudgetMax, p.Deadline, p.Status, p.BuyerID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if p.Bids == nil {
		p.Bids = []models.Bid{}
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Project, error) {
	return r.listWithBids(ctx, "")
}

func (r *PostgresRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Project, error) {
	return r.listWithBids(ctx, ` WHERE buyer_id = $1`, buyerID)
}

func (r *PostgresRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Project, error) {
	return r.listWithBids(ctx, ` WHERE seller_id = $1`, sellerID)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	p := &models.Project{}
	err := scanProject(r.db.QueryRowContext(ctx, selectProject+` WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	bids, err := r.queryBids(ctx, selectBid+` WHERE b.project_id = $1 ORDER BY b.created_at`, id)
	if err != nil {
		return nil, err
	}
	p.Bids = bids
	return p, nil
}

func (r *PostgresRepository) CreateBid(ctx context.Context, b *models.Bid) (*models.Bid, error) {

	query :=
		`INSERT INTO bids (id, project_id, seller_id, amount, estimated_time, message, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.ProjectID, b.SellerID, b.Amount, b.EstimatedTime, b.Message, b.Status).Scan(&b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) GetBid(ctx context.Context, id string) (*models.Bid, error) {
	bids, err := r.queryBids(ctx, selectBid+` WHERE b.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return nil, common.ErrNotFound
	}
	return &bids[0], nil
}

func (r *PostgresRepository) ListBidsBySeller(ctx context.Context, sellerID string) ([]models.Bid, error) {
	return r.queryBids(ctx, selectBid+` WHERE b.seller_id = $1 ORDER BY b.created_at DESC`, sellerID)
}

func (r *PostgresRepository) Assign(ctx context.Context, projectID, bidID, sellerID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET status = $1, seller_id = $2, selected_bid = $3, updated_at = now() WHERE id = $4`,
		models.ProjectInProgress, sellerID, bidID, projectID)
	if err := affected(res, err); err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE bids SET status = CASE WHEN id = $1 THEN $2 ELSE $3 END WHERE project_id = $4`,
		bidID, models.BidSelected, models.BidRejected, projectID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Complete(ctx context.Context, projectID, bidID, documentKey string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET status = $1, document_key = $2, updated_at = now() WHERE id = $3`,
		models.ProjectCompleted, documentKey, projectID)
	if err := affected(res, err); err != nil {
		return err
	}

	res, err = r.db.ExecContext(ctx,
		`UPDATE bids SET status = $1 WHERE id = $2 AND project_id = $3`,
		models.BidCompleted, bidID, projectID)
	return affected(res, err)
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner, p *models.Project) error {
	return s.Scan(&p.ID, &p.Title, &p.Description, &p.BudgetMin, &p.BudgetMax, &p.Deadline, &p.Status,
		&p.BuyerID, &p.SellerID, &p.SelectedBid, &p.DocumentKey, &p.CreatedAt, &p.UpdatedAt)
}

// listWithBids loads the projects matching where and then all of their bids
// in one more query using the same filter.
func (r *PostgresRepository) listWithBids(ctx context.Context, where string, args ...any) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProject+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Project{}
	index := map[string]int{}
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Bids = []models.Bid{}
		index[p.ID] = len(result)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	bids, err := r.queryBids(ctx,
		selectBid+` WHERE b.project_id IN (SELECT id FROM projects`+where+`) ORDER BY b.created_at`, args...)
	if err != nil {
		return nil, err
	}
	for _, b := range bids {
		if i, ok := index[b.ProjectID]; ok {
			result[i].Bids = append(result[i].Bids, b)
		}
	}
	return result, nil
}

func (r *PostgresRepository) queryBids(ctx context.Context, query string, args ...any) ([]models.Bid, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.SellerID, &b.SellerName, &b.Amount,
			&b.EstimatedTime, &b.Message, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return bids, nil
}
