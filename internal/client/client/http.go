package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/shopspring/decimal"
)

const (
	pathLogin      = "/api/auth/login"
	pathRequestOTP = "/api/requestotp"
	pathVerifyOTP  = "/api/verifyotp"
	pathDetails    = "/api/auth/details"
	pathProjects   = "/api/projects"
	pathBids       = "/api/bids"

	defaultTimeout = 15 * time.Second
	maxBodySize    = 8 << 20
)

// HTTPClient talks to the marketplace REST API.
type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	log            logging.Logger
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

// WithUnauthorizedHandler registers fn to run when an authenticated call is
// answered with 401.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		tokens:     TokenSourceFunc(func(context.Context) string { return "" }),
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type detailsResponse struct {
	Status string              `json:"status"`
	Data   *models.UserDetails `json:"data"`
}

type createProjectRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	BudgetMin   json.Number `json:"budgetMin"`
	BudgetMax   json.Number `json:"budgetMax"`
	Deadline    string      `json:"deadline"`
}

type submitBidRequest struct {
	ProjectID     string      `json:"projectId"`
	Amount        json.Number `json:"amount"`
	EstimatedTime string      `json:"estimatedTime"`
	Message       string      `json:"message"`
}

type selectBidRequest struct {
	BidID string `json:"bidId"`
}

// number keeps the exact decimal digits on the wire.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, pathLogin, false, loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestOTP asks the server to mail a signup code and returns its message.
func (c *HTTPClient) RequestOTP(ctx context.Context, reg models.Registration) (string, error) {
	var res messageResponse
	if err := c.doJSON(ctx, http.MethodPost, pathRequestOTP, false, reg, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, pathVerifyOTP, false, verifyOTPRequest{Email: email, OTP: otp}, &res); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Details(ctx context.Context) (*models.UserDetails, error) {
	var res detailsResponse
	if err := c.doJSON(ctx, http.MethodGet, pathDetails, true, nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		return nil, fmt.Errorf("%w: details without data", common.ErrParse)
	}
	return res.Data, nil
}

func (c *HTTPClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	var res []models.Project
	if err := c.doJSON(ctx, http.MethodGet, pathProjects, false, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error) {
	req := createProjectRequest{
		Title:       p.Title,
		Description: p.Description,
		BudgetMin:   number(p.BudgetMin),
		BudgetMax:   number(p.BudgetMax),
		Deadline:    p.Deadline,
	}
	var res models.Project
	if err := c.doJSON(ctx, http.MethodPost, pathProjects, true, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) SubmitBid(ctx context.Context, b models.NewBid) (*models.Bid, error) {
	req := submitBidRequest{
		ProjectID:     b.ProjectID,
		Amount:        number(b.Amount),
		EstimatedTime: b.EstimatedTime,
		Message:       b.Message,
	}
	var res models.Bid
	if err := c.doJSON(ctx, http.MethodPost, pathBids, true, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) SelectBid(ctx context.Context, projectID, bidID string) (*models.Project, error) {
	path := pathProjects + "/" + url.PathEscape(projectID) + "/select"
	var res models.Project
	if err := c.doJSON(ctx, http.MethodPost, path, true, selectBidRequest{BidID: bidID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CompleteProject uploads the deliverable and moves the project to COMPLETED.
func (c *HTTPClient) CompleteProject(ctx context.Context, projectID, bidID string, doc models.Document) (*models.Project, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("status", string(models.ProjectCompleted)); err != nil {
		return nil, err
	}
	if err := mw.WriteField("bidId", bidID); err != nil {
		return nil, err
	}
	fw, err := mw.CreateFormFile("document", doc.Name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(doc.Content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	path := pathProjects + "/" + url.PathEscape(projectID) + "/status"
	var res models.Project
	if err := c.do(ctx, http.MethodPut, path, true, &buf, mw.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, auth, body, contentType, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, auth bool, body io.Reader, contentType string, out any) error {
	var token string
	if auth {
		token = c.tokens.Token(ctx)
		if token == "" {
			return common.ErrAuthorization
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.Warn(ctx, "api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	c.log.Debug(ctx, "api request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
		if resp.StatusCode == http.StatusUnauthorized && auth && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var m messageResponse
	if err := json.Unmarshal(body, &m); err == nil {
		if s := strings.TrimSpace(m.Message); s != "" {
			return s
		}
		if s := strings.TrimSpace(m.Error); s != "" {
			return s
		}
	}
	return GenericErrorMessage
}
