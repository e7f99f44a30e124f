package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/client/client"
	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
)

// BidSubmitter is the seller's bid form for one project.
type BidSubmitter struct {
	client      client.Client
	sessions    SessionReader
	notify      models.NoticeFunc
	onSubmitted func(*models.Bid)

	mu    sync.Mutex
	state State
	form  models.NewBid
	err   error
}

// NewBidSubmitter returns a form for projectID. onSubmitted runs after a
// successful submission so the caller can refresh its listings.
func NewBidSubmitter(c client.Client, sessions SessionReader, projectID string, notify models.NoticeFunc, onSubmitted func(*models.Bid)) *BidSubmitter {
	return &BidSubmitter{
		client:      c,
		sessions:    sessions,
		notify:      notify,
		onSubmitted: onSubmitted,
		form:        models.NewBid{ProjectID: projectID},
	}
}

func (b *BidSubmitter) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Form returns what the user entered last. It is emptied by a successful
// submission and kept after a failed one.
func (b *BidSubmitter) Form() models.NewBid {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.form
}

func (b *BidSubmitter) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *BidSubmitter) Submit(ctx context.Context, bid models.NewBid) (*models.Bid, error) {
	b.mu.Lock()
	if b.state == StateSubmitting {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	bid.ProjectID = b.form.ProjectID
	b.form = bid
	b.state = StateSubmitting
	b.err = nil
	b.mu.Unlock()

	if !b.sessions.Load(ctx).Present() {
		return nil, b.finish(StateFailed, common.ErrAuthorization)
	}
	if err := bid.Validate(); err != nil {
		return nil, b.finish(StateFailed, err)
	}

	created, err := b.client.SubmitBid(ctx, bid)
	if err != nil {
		return nil, b.finish(StateFailed, err)
	}

	b.mu.Lock()
	b.state = StateSuccess
	b.form = models.NewBid{ProjectID: bid.ProjectID}
	b.mu.Unlock()

	b.notify.Emit(models.NoticeSuccess, "Bid submitted successfully!")
	if b.onSubmitted != nil {
		b.onSubmitted(created)
	}
	return created, nil
}

func (b *BidSubmitter) finish(s State, err error) error {
	b.mu.Lock()
	b.state = s
	b.err = err
	b.mu.Unlock()
	b.notify.Emit(models.NoticeError, err.Error())
	return err
}

// SelectState is the two-step confirmation of a bid selection.
type SelectState int

const (
	SelectUnconfirmed SelectState = iota
	SelectConfirmed
	Selecting
	SelectSucceeded
)

func (s SelectState) String() string {
	switch s {
	case SelectConfirmed:
		return "confirmed"
	case Selecting:
		return "selecting"
	case SelectSucceeded:
		return "selected"
	default:
		return "unconfirmed"
	}
}

// BidSelector lets a buyer pick the winning bid of a project. The first
// activation only arms the confirmation; the second one, for the same bid,
// sends the request.
type BidSelector struct {
	client     client.Client
	sessions   SessionReader
	notify     models.NoticeFunc
	onSelected func(*models.Project)

	mu      sync.Mutex
	state   SelectState
	project string
	bid     string
}

func NewBidSelector(c client.Client, sessions SessionReader, notify models.NoticeFunc, onSelected func(*models.Project)) *BidSelector {
	return &BidSelector{client: c, sessions: sessions, notify: notify, onSelected: onSelected}
}

func (s *BidSelector) State() SelectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Armed returns the bid awaiting confirmation, if any.
func (s *BidSelector) Armed() (projectID, bidID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SelectConfirmed {
		return "", "", false
	}
	return s.project, s.bid, true
}

// Disarm drops a pending confirmation.
func (s *BidSelector) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SelectConfirmed {
		s.state = SelectUnconfirmed
	}
}

// Activate is one press of the select control. It returns (nil, nil) when
// the press only armed the confirmation.
func (s *BidSelector) Activate(ctx context.Context, projectID, bidID string) (*models.Project, error) {
	s.mu.Lock()
	switch {
	case s.state == Selecting:
		s.mu.Unlock()
		return nil, ErrBusy
	case s.state != SelectConfirmed || s.project != projectID || s.bid != bidID:
		s.state = SelectConfirmed
		s.project, s.bid = projectID, bidID
		s.mu.Unlock()
		s.notify.Emit(models.NoticeInfo, "Select this bid again to confirm")
		return nil, nil
	}
	s.state = Selecting
	s.mu.Unlock()

	if !s.sessions.Load(ctx).Present() {
		return nil, s.reset(common.ErrAuthorization)
	}

	p, err := s.client.SelectBid(ctx, projectID, bidID)
	if err != nil {
		return nil, s.reset(err)
	}

	s.mu.Lock()
	s.state = SelectSucceeded
	s.mu.Unlock()

	s.notify.Emit(models.NoticeSuccess, "Bid selected successfully!")
	if s.onSelected != nil {
		s.onSelected(p)
	}
	return p, nil
}

func (s *BidSelector) reset(err error) error {
	s.mu.Lock()
	s.state = SelectUnconfirmed
	s.project, s.bid = "", ""
	s.mu.Unlock()
	s.notify.Emit(models.NoticeError, err.Error())
	return err
}

// PanelState is the state of one completion panel.
type PanelState int

const (
	PanelHidden PanelState = iota
	PanelOpen
	PanelFileSelected
	PanelSubmitting
	PanelCompleted
)

func (p PanelState) String() string {
	switch p {
	case PanelOpen:
		return "open"
	case PanelFileSelected:
		return "file-selected"
	case PanelSubmitting:
		return "submitting"
	case PanelCompleted:
		return "completed"
	default:
		return "hidden"
	}
}

// CompletionRow is one of the seller's bids together with its project.
type CompletionRow struct {
	Bid     models.Bid
	Project models.Project
}

// Completable reports whether the seller may mark the work done.
func (r CompletionRow) Completable() bool {
	return r.Bid.Status == models.BidSelected && r.Project.Status != models.ProjectCompleted
}

// CompletionView is a snapshot of one row and its panel.
type CompletionView struct {
	CompletionRow
	Panel PanelState
	File  string
	Err   error
}

type completionAttempt struct {
	row   CompletionRow
	panel PanelState
	file  *models.Document
	err   error
}

// CompletionBoard holds the completion panels of the seller's bids, keyed by
// bid id. Panels are independent of each other.
type CompletionBoard struct {
	client   client.Client
	sessions SessionReader
	notify   models.NoticeFunc
	log      logging.Logger

	mu    sync.Mutex
	rows  map[string]*completionAttempt
	order []string
}

func NewCompletionBoard(c client.Client, sessions SessionReader, notify models.NoticeFunc, rows []CompletionRow) *CompletionBoard {
	b := &CompletionBoard{
		client:   c,
		sessions: sessions,
		notify:   notify,
		log:      logging.Nop(),
		rows:     make(map[string]*completionAttempt, len(rows)),
	}
	for _, r := range rows {
		if _, dup := b.rows[r.Bid.ID]; dup {
			continue
		}
		b.rows[r.Bid.ID] = &completionAttempt{row: r}
		b.order = append(b.order, r.Bid.ID)
	}
	return b
}

func (b *CompletionBoard) SetLogger(l logging.Logger) {
	b.log = l
}

func (b *CompletionBoard) Rows() []CompletionView {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]CompletionView, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.rows[id].view())
	}
	return out
}

func (b *CompletionBoard) View(bidID string) (CompletionView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.rows[bidID]
	if !ok {
		return CompletionView{}, false
	}
	return a.view(), true
}

// OpenPanels lists bid ids whose panel is open, sorted.
func (b *CompletionBoard) OpenPanels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []string
	for id, a := range b.rows {
		if a.panel == PanelOpen || a.panel == PanelFileSelected || a.panel == PanelSubmitting {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (a *completionAttempt) view() CompletionView {
	v := CompletionView{CompletionRow: a.row, Panel: a.panel, Err: a.err}
	if a.file != nil {
		v.File = a.file.Name
	}
	return v
}

func (b *CompletionBoard) lookup(bidID string) (*completionAttempt, error) {
	a, ok := b.rows[bidID]
	if !ok {
		return nil, fmt.Errorf("%w: bid %s", common.ErrNotFound, bidID)
	}
	return a, nil
}

// Open shows the completion panel of a completable bid.
func (b *CompletionBoard) Open(bidID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.lookup(bidID)
	if err != nil {
		return err
	}
	if !a.row.Completable() {
		return fmt.Errorf("%w: bid is %s and project is %s", ErrNotCompletable, a.row.Bid.Status, a.row.Project.Status)
	}
	if a.panel == PanelHidden {
		a.panel = PanelOpen
	}
	return nil
}

// Attach selects the deliverable for an open panel, replacing any earlier
// choice.
func (b *CompletionBoard) Attach(bidID string, doc models.Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("%w: file name is required", common.ErrValidation)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.lookup(bidID)
	if err != nil {
		return err
	}
	switch a.panel {
	case PanelOpen, PanelFileSelected:
	case PanelSubmitting:
		return ErrBusy
	default:
		return fmt.Errorf("%w: open the completion panel first", common.ErrValidation)
	}
	a.file = &doc
	a.panel = PanelFileSelected
	return nil
}

// CanSubmit is the enabled state of the panel's submit control.
func (b *CompletionBoard) CanSubmit(bidID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.rows[bidID]
	return ok && a.panel == PanelFileSelected && a.file != nil
}

// Submit uploads the attached file and marks bid and project completed.
// On failure the panel stays open with the file kept for a retry.
func (b *CompletionBoard) Submit(ctx context.Context, bidID string) (*models.Project, error) {
	b.mu.Lock()
	a, err := b.lookup(bidID)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if a.panel == PanelSubmitting {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	if a.panel != PanelFileSelected || a.file == nil {
		b.mu.Unlock()
		return nil, ErrNoFile
	}
	doc := *a.file
	projectID := a.row.Project.ID
	a.panel = PanelSubmitting
	a.err = nil
	b.mu.Unlock()

	if !b.sessions.Load(ctx).Present() {
		return nil, b.failed(a, common.ErrAuthorization)
	}

	p, err := b.client.CompleteProject(ctx, projectID, bidID, doc)
	if err != nil {
		return nil, b.failed(a, err)
	}

	b.mu.Lock()
	a.row.Bid.Status = models.BidCompleted
	a.row.Project.Status = models.ProjectCompleted
	a.panel = PanelCompleted
	a.file = nil
	b.mu.Unlock()

	b.log.Info(ctx, "project completed", "bid", bidID, "project", projectID, "file", doc.Name)
	b.notify.Emit(models.NoticeSuccess, "Project marked as completed!")
	return p, nil
}

func (b *CompletionBoard) failed(a *completionAttempt, err error) error {
	b.mu.Lock()
	a.err = err
	if a.panel == PanelSubmitting {
		a.panel = PanelFileSelected
	}
	b.mu.Unlock()
	b.notify.Emit(models.NoticeError, err.Error())
	return err
}

// Close hides the panel and discards the attached file.
func (b *CompletionBoard) Close(bidID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.lookup(bidID)
	if err != nil {
		return err
	}
	if a.panel == PanelSubmitting {
		return ErrBusy
	}
	if a.panel != PanelCompleted {
		a.panel = PanelHidden
	}
	a.file = nil
	a.err = nil
	return nil
}
