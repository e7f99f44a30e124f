package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/services"
)

var errNoBoard = errors.New("no bid list loaded, run 'mybids' first")

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Bid fills in and submits a bid on projectID. The form is kept per project,
// so after a failure the previous answers are offered as defaults.
func (a *App) Bid(ctx context.Context, projectID string) error {
	if err := a.open(services.RouteSellerDashboard); err != nil {
		return err
	}

	sub, ok := a.bids[projectID]
	if !ok {
		sub = services.NewBidSubmitter(a.api, a.store, projectID, a.notice, nil)
		a.bids[projectID] = sub
	}
	prev := sub.Form()

	amount, err := a.readAmount("Bid amount", prev.Amount)
	if err != nil {
		return err
	}
	eta, err := GetTextOr(a.reader, "Estimated time (e.g. 2 weeks)", prev.EstimatedTime, a.out)
	if err != nil {
		return err
	}
	msg, err := GetTextOr(a.reader, "Message to the buyer", prev.Message, a.out)
	if err != nil {
		return err
	}

	b, err := sub.Submit(ctx, models.NewBid{Amount: amount, EstimatedTime: eta, Message: msg})
	if err != nil {
		return err
	}
	delete(a.bids, projectID)
	a.printf("Bid %s placed: %s\n", b.ID, models.FormatMoney(b.Amount))
	return nil
}

// Select picks the winning bid of a buyer's project. The first call only
// asks for confirmation; repeating it for the same bid sends the request.
func (a *App) Select(ctx context.Context, projectID, bidID string) error {
	if err := a.open(services.RouteBuyerDashboard); err != nil {
		return err
	}
	p, err := a.selector.Activate(ctx, projectID, bidID)
	if err != nil || p == nil {
		return err
	}
	a.printf("Project %s is now %s\n", p.ID, p.Status)
	return nil
}

// MyBids loads the seller's bids and shows which of them can be completed.
func (a *App) MyBids(ctx context.Context) error {
	if err := a.open(services.RouteSellerBids); err != nil {
		return err
	}
	rows, err := a.projects.SellerBoard(ctx)
	if err != nil {
		a.printf("Failed to load bids: %v\n", err)
		return err
	}
	a.board = services.NewCompletionBoard(a.api, a.store, a.notice, rows)
	a.board.SetLogger(a.log)
	a.printBoard()
	return nil
}

func (a *App) printBoard() {
	views := a.board.Rows()
	if len(views) == 0 {
		a.printf("You haven't placed any bids yet.\n")
		return
	}
	a.table(func(w io.Writer) {
		fmt.Fprintln(w, "BID\tPROJECT\tAMOUNT\tSTATUS\tPROJECT STATUS\tCOMPLETION")
		for _, v := range views {
			title := v.Project.Title
			if title == "" {
				title = v.Project.ID
			}
			panel := "-"
			switch {
			case v.Panel != services.PanelHidden:
				panel = v.Panel.String()
				if v.File != "" {
					panel += " (" + v.File + ")"
				}
			case v.Completable():
				panel = "available"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", v.Bid.ID, title, models.FormatMoney(v.Bid.Amount), v.Bid.Status, v.Project.Status, panel)
		}
	})
}

// Complete opens the completion panel of bidID.
func (a *App) Complete(_ context.Context, bidID string) error {
	if a.board == nil {
		a.printf("%v\n", errNoBoard)
		return errNoBoard
	}
	if err := a.board.Open(bidID); err != nil {
		a.printf("%v\n", err)
		return err
	}
	a.printf("Attach the deliverable with: attach %s <path>\n", bidID)
	return nil
}

// Attach reads the file at path and selects it for bidID's panel.
func (a *App) Attach(_ context.Context, bidID, path string) error {
	if a.board == nil {
		a.printf("%v\n", errNoBoard)
		return errNoBoard
	}
	content, err := readFile(path)
	if err != nil {
		a.printf("Cannot read %s: %v\n", path, err)
		return err
	}
	if err := a.board.Attach(bidID, models.Document{Name: filepath.Base(path), Content: content}); err != nil {
		a.printf("%v\n", err)
		return err
	}
	a.printf("Attached %s (%d bytes). Send it with: submit %s\n", filepath.Base(path), len(content), bidID)
	return nil
}

// Submit sends the attached deliverable and marks the project completed.
func (a *App) Submit(ctx context.Context, bidID string) error {
	if a.board == nil {
		a.printf("%v\n", errNoBoard)
		return errNoBoard
	}
	if !a.board.CanSubmit(bidID) {
		a.printf("%v\n", services.ErrNoFile)
		return services.ErrNoFile
	}
	_, err := a.board.Submit(ctx, bidID)
	return err
}

// Cancel closes bidID's panel and forgets the attached file.
func (a *App) Cancel(_ context.Context, bidID string) error {
	if a.board == nil {
		a.printf("%v\n", errNoBoard)
		return errNoBoard
	}
	if err := a.board.Close(bidID); err != nil {
		a.printf("%v\n", err)
		return err
	}
	return nil
}
