package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/clubcore/clubcore/internal/payment/domain"
	"github.com/clubcore/clubcore/pkg/db/pagination"
)

type createPaymentRequest struct {
	MemberID     string `json:"member_id"`
	MembershipID string `json:"membership_id"`
	BranchID     string `json:"branch_id"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
	Reference    string `json:"reference"`
	Note         string `json:"note"`
	PaidAt       string `json:"paid_at"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parsePaidAt(req.PaidAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Create(c.Request.Context(), tenantID, paymentdomain.CreatePaymentRequest{
		MemberID:     strings.TrimSpace(req.MemberID),
		MembershipID: strings.TrimSpace(req.MembershipID),
		BranchID:     strings.TrimSpace(req.BranchID),
		AmountCents:  req.AmountCents,
		Currency:     strings.TrimSpace(req.Currency),
		Method:       strings.ToUpper(strings.TrimSpace(req.Method)),
		Reference:    strings.TrimSpace(req.Reference),
		Note:         strings.TrimSpace(req.Note),
		PaidAt:       paidAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		MemberID string `form:"member_id"`
		Month    string `form:"month"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), tenantID, paymentdomain.ListPaymentRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  int32(query.PageSize),
		MemberID:  strings.TrimSpace(query.MemberID),
		Month:     strings.TrimSpace(query.Month),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.paymentSvc.GetByID(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePaymentRequest struct {
	AmountCents *int64  `json:"amount_cents"`
	Method      *string `json:"method"`
	Reference   *string `json:"reference"`
	Note        *string `json:"note"`
	PaidAt      string  `json:"paid_at"`
}

func (s *Server) UpdatePayment(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parsePaidAt(req.PaidAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Update(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")), paymentdomain.UpdatePaymentRequest{
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Reference:   req.Reference,
		Note:        req.Note,
		PaidAt:      paidAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePayment(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	if err := s.paymentSvc.Delete(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) PaymentReceipt(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	pdfBytes, err := s.paymentSvc.Receipt(c.Request.Context(), tenantID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt-`+id+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func parsePaidAt(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at")
	}
	return &parsed, nil
}
