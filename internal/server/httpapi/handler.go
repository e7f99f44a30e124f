package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/server/models"
	"github.com/dmitrijs2005/bidmarket/internal/server/services"
	"github.com/gin-gonic/gin"
)

const multipartMemory = 8 << 20

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type selectBidRequest struct {
	BidID string `json:"bidId"`
}

// fail writes err as {"message": ...} with the status its kind maps to.
func (s *Server) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrAlreadyExists), errors.Is(err, common.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	} else if m := services.Message(err); m != "" {
		msg = m
	} else {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"message": msg})
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) requestOTP(c *gin.Context) {
	var req services.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	msg, err := s.users.RequestOTP(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	res, err := s.users.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) details(c *gin.Context) {
	d, err := s.users.Details(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": d})
}

func (s *Server) listProjects(c *gin.Context) {
	items, err := s.market.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.market.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProject(c *gin.Context) {
	var req services.NewProject
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	p, err := s.market.CreateProject(c.Request.Context(), principal(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) submitBid(c *gin.Context) {
	var req services.NewBid
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	b, err := s.market.SubmitBid(c.Request.Context(), principal(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) selectBid(c *gin.Context) {
	var req selectBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	p, err := s.market.SelectBid(c.Request.Context(), principal(c), c.Param("id"), req.BidID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// completeProject takes multipart fields status=COMPLETED, bidId and the
// document file.
func (s *Server) completeProject(c *gin.Context) {
	// Room for the other multipart fields on top of the document.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxDocumentSize+64<<10)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "document is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid multipart form"})
		return
	}

	if c.PostForm("status") != models.ProjectCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"message": "status must be COMPLETED"})
		return
	}
	bidID := c.PostForm("bidId")
	if bidID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bidId is required"})
		return
	}

	fh, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please upload a document"})
		return
	}
	if fh.Size > s.maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "document is too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, err)
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	p, err := s.market.CompleteProject(c.Request.Context(), principal(c), c.Param("id"), bidID,
		services.Upload{Name: fh.Filename, ContentType: contentType, Body: body})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) document(c *gin.Context) {
	body, contentType, link, err := s.market.Document(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if link != "" {
		c.Redirect(http.StatusTemporaryRedirect, link)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
