package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/services"
	"github.com/shopspring/decimal"
)

var getMultiline = GetMultiline

// Nav prints the current view and the navigation entries visible for the
// stored session.
func (a *App) Nav(_ context.Context) error {
	l := a.links()
	a.printf("Current view: %s\n", a.currentRoute())
	for _, e := range []struct {
		show bool
		text string
	}{
		{true, "projects         " + string(services.RouteProjects)},
		{l.BuyerDashboard, "buyer dashboard  " + string(services.RouteBuyerDashboard)},
		{l.SellerDashboard, "seller dashboard " + string(services.RouteSellerDashboard)},
		{l.Profile, "profile          " + string(services.RouteProfile)},
		{l.Logout, "logout"},
		{l.Login, "login"},
		{l.Register, "register"},
	} {
		if e.show {
			a.printf("  %s\n", e.text)
		}
	}
	return nil
}

// Projects prints the public project listing.
func (a *App) Projects(ctx context.Context) error {
	if err := a.open(services.RouteProjects); err != nil {
		return err
	}
	ps, err := a.projects.List(ctx)
	if err != nil {
		a.printf("Failed to load projects: %v\n", err)
		return err
	}
	if len(ps) == 0 {
		a.printf("No projects yet\n")
		return nil
	}
	a.table(func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tBUDGET\tDEADLINE\tSTATUS\tBIDS")
		for _, p := range ps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, models.FormatBudget(p.BudgetMin, p.BudgetMax), p.Deadline, p.Status, len(p.Bids))
		}
	})
	return nil
}

// Project prints one project with its bids.
func (a *App) Project(ctx context.Context, id string) error {
	p, err := a.projects.Get(ctx, id)
	if err != nil {
		a.printf("Failed to load project: %v\n", err)
		return err
	}
	a.printf("%s [%s]\n%s\nBudget: %s\nDeadline: %s\n", p.Title, p.Status, p.Description, models.FormatBudget(p.BudgetMin, p.BudgetMax), p.Deadline)
	if len(p.Bids) == 0 {
		a.printf("No bids yet\n")
		return nil
	}
	a.table(func(w io.Writer) {
		fmt.Fprintln(w, "BID\tSELLER\tAMOUNT\tTIME\tSTATUS")
		for _, b := range p.Bids {
			seller := b.SellerName
			if seller == "" {
				seller = b.SellerID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, seller, models.FormatMoney(b.Amount), b.EstimatedTime, b.Status)
		}
	})
	return nil
}

// Create walks a buyer through the new-project form.
func (a *App) Create(ctx context.Context) error {
	if err := a.open(services.RouteCreateProject); err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, "Project title", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	budgetMin, err := a.readAmount("Minimum budget", decimal.Zero)
	if err != nil {
		return err
	}
	budgetMax, err := a.readAmount("Maximum budget", decimal.Zero)
	if err != nil {
		return err
	}
	deadline, err := getSimpleText(a.reader, "Deadline (YYYY-MM-DD)", a.out)
	if err != nil {
		return err
	}

	p, err := a.projects.Create(ctx, models.NewProject{
		Title:       title,
		Description: description,
		BudgetMin:   budgetMin,
		BudgetMax:   budgetMax,
		Deadline:    deadline,
	})
	if err != nil {
		a.printf("Failed to create project: %v\n", err)
		return err
	}
	a.setRoute(services.RouteBuyerDashboard)
	a.printf("Project created: %s (%s)\n", p.Title, p.ID)
	return nil
}

// Profile prints the signed-in user's details and dashboard counters.
func (a *App) Profile(ctx context.Context) error {
	if err := a.open(services.RouteProfile); err != nil {
		return err
	}
	pr, err := a.projects.Profile(ctx)
	if err != nil {
		a.printf("Failed to load profile: %v\n", err)
		return err
	}
	d := pr.Details
	a.printf("%s <%s>\nRole: %s\nMember since: %s\n", d.Name, d.Email, d.Role, d.CreatedAt)
	switch d.Role {
	case models.RoleBuyer:
		a.printf("Projects: %d (pending %d, in progress %d, completed %d)\n",
			len(d.ProjectsCreated), pr.Stats.Pending, pr.Stats.InProgress, pr.Stats.Completed)
	case models.RoleSeller:
		a.printf("Bids: %d, projects taken: %d\n", len(d.Bids), len(d.ProjectsTaken))
	}
	return nil
}

// readAmount prompts for a money amount; an empty answer keeps def.
func (a *App) readAmount(prompt string, def decimal.Decimal) (decimal.Decimal, error) {
	s := ""
	if !def.IsZero() {
		s = def.String()
	}
	text, err := GetTextOr(a.reader, prompt+" ("+models.CurrencySymbol+")", s, a.out)
	if err != nil {
		return decimal.Zero, err
	}
	if text == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		a.printf("%q is not an amount\n", text)
		return decimal.Zero, err
	}
	return d, nil
}

func (a *App) table(fill func(w io.Writer)) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fill(w)
	_ = w.Flush()
}
