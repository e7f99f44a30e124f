package projects

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var (
	projectCols = []string{"id", "title", "description", "budget_min", "budget_max", "deadline", "status",
		"buyer_id", "seller_id", "selected_bid", "document_key", "created_at", "updated_at"}
	bidCols = []string{"id", "project_id", "seller_id", "name", "amount", "estimated_time", "message", "status", "created_at"}
	ts      = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	p := &models.Project{
		ID: "p-1", Title: "Site", Description: "Landing page",
		BudgetMin: decimal.RequireFromString("100"), BudgetMax: decimal.RequireFromString("250.50"),
		Deadline: "2030-01-01", Status: models.ProjectPending, BuyerID: "u-1",
	}

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+projects\s*\(id,\s*title,.+RETURNING\s+created_at,\s*updated_at\s*$`).
		WithArgs("p-1", "Site", "Landing page", p.BudgetMin, p.BudgetMax, "2030-01-01", "PENDING", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	got, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ts, got.CreatedAt)
	assert.NotNil(t, got.Bids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AttachesBids(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*title,.+FROM\s+projects\s+ORDER\s+BY\s+created_at\s+DESC$`).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p-1", "Site", "d", "100", "200", "2030-01-01", "PENDING", "u-1", nil, nil, nil, ts, ts).
			AddRow("p-2", "App", "d", "10", "20", "2030-02-01", "IN_PROGRESS", "u-1", "u-2", "b-2", nil, ts, ts))

	mock.ExpectQuery(`(?s)^SELECT\s+b\.id,.+FROM\s+bids\s+b\s+JOIN\s+users\s+u.+WHERE\s+b\.project_id\s+IN\s+\(SELECT\s+id\s+FROM\s+projects\)\s+ORDER\s+BY\s+b\.created_at$`).
		WillReturnRows(sqlmock.NewRows(bidCols).
			AddRow("b-2", "p-2", "u-2", "Sam", "15", "1 week", "hi", "SELECTED", ts))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Empty(t, got[0].Bids)
	assert.Nil(t, got[0].SellerID)
	require.Len(t, got[1].Bids, 1)
	assert.Equal(t, "Sam", got[1].Bids[0].SellerName)
	assert.True(t, got[1].Bids[0].Amount.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, got[1].SellerID)
	assert.Equal(t, "u-2", *got[1].SellerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByBuyer_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+projects\s+WHERE\s+buyer_id\s*=\s*\$1\s+ORDER\s+BY`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(projectCols))

	got, err := repo.ListByBuyer(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+projects\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetBid_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+bids\s+b.+WHERE\s+b\.id\s*=\s*\$1$`).WithArgs("b-9").
		WillReturnRows(sqlmock.NewRows(bidCols))

	_, err := repo.GetBid(context.Background(), "b-9")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateBid_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+bids`).WillReturnError(errors.New("fk violation"))

	_, err := repo.CreateBid(context.Background(), &models.Bid{ID: "b-1", ProjectID: "p-1", SellerID: "u-2"})
	assert.ErrorContains(t, err, "db error: fk violation")
}

func TestAssign(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE\s+projects\s+SET\s+status\s*=\s*\$1,\s*seller_id\s*=\s*\$2,\s*selected_bid\s*=\s*\$3`).
		WithArgs("IN_PROGRESS", "u-2", "b-1", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE\s+bids\s+SET\s+status\s*=\s*CASE`).
		WithArgs("b-1", "SELECTED", "REJECTED", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Assign(context.Background(), "p-1", "b-1", "u-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssign_MissingProject(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^UPDATE\s+projects`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Assign(context.Background(), "p-x", "b-1", "u-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestComplete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE\s+projects\s+SET\s+status\s*=\s*\$1,\s*document_key\s*=\s*\$2`).
		WithArgs("COMPLETED", "documents/p-1/report.pdf", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE\s+bids\s+SET\s+status\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s+AND\s+project_id\s*=\s*\$3$`).
		WithArgs("COMPLETED", "b-1", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Complete(context.Background(), "p-1", "b-1", "documents/p-1/report.pdf"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComplete_BidOfOtherProject(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE\s+projects`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE\s+bids`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Complete(context.Background(), "p-1", "b-7", "k")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
