package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	authdomain "github.com/clubcore/clubcore/internal/auth/domain"
	authservice "github.com/clubcore/clubcore/internal/auth/service"
	"github.com/clubcore/clubcore/internal/authorization"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	dashboarddomain "github.com/clubcore/clubcore/internal/dashboard/domain"
	memberdomain "github.com/clubcore/clubcore/internal/member/domain"
	membershipdomain "github.com/clubcore/clubcore/internal/membership/domain"
	paymentdomain "github.com/clubcore/clubcore/internal/payment/domain"
	periodlockdomain "github.com/clubcore/clubcore/internal/periodlock/domain"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
	signupdomain "github.com/clubcore/clubcore/internal/signup/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// billingLockedResponse is the wire contract for the billing gate. Clients
// branch on code, never on message text.
type billingLockedResponse struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrTooManyLogins  = errors.New("too_many_login_attempts")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		// The billing gate has its own envelope. It is always 403, even on
		// login, so clients can distinguish a billing lock from bad
		// credentials.
		var locked *billingdomain.LockedError
		if errors.As(lastErr.Err, &locked) {
			c.AbortWithStatusJSON(http.StatusForbidden, billingLockedResponse{
				StatusCode: http.StatusForbidden,
				Code:       billingdomain.LockedCode,
				Message:    locked.Message(),
			})
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrTooManyLogins):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many login attempts",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, signupdomain.ErrInvalidRequest):
		return true
	case errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidEmail),
		errors.Is(err, tenantdomain.ErrInvalidTimezone),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, tenantdomain.ErrInvalidUser):
		return true
	case errors.Is(err, billingdomain.ErrInvalidStatus),
		errors.Is(err, billingdomain.ErrStatusImmutable),
		errors.Is(err, billingdomain.ErrInvalidTenant):
		return true
	case errors.Is(err, branchdomain.ErrInvalidName),
		errors.Is(err, branchdomain.ErrInvalidID),
		errors.Is(err, branchdomain.ErrInvalidTimezone):
		return true
	case errors.Is(err, memberdomain.ErrInvalidName),
		errors.Is(err, memberdomain.ErrInvalidEmail),
		errors.Is(err, memberdomain.ErrInvalidID),
		errors.Is(err, memberdomain.ErrInvalidBranch):
		return true
	case errors.Is(err, plandomain.ErrInvalidID),
		errors.Is(err, plandomain.ErrInvalidName),
		errors.Is(err, plandomain.ErrInvalidScope),
		errors.Is(err, plandomain.ErrInvalidPrice),
		errors.Is(err, plandomain.ErrInvalidCurrency),
		errors.Is(err, plandomain.ErrInvalidDuration),
		errors.Is(err, plandomain.ErrInvalidBranch),
		errors.Is(err, plandomain.ErrScopeImmutable),
		// Invalid-state, not conflict: restoring an active plan and deleting
		// a referenced plan are deterministic rule violations, so they render
		// as 400s.
		errors.Is(err, plandomain.ErrNotArchived),
		errors.Is(err, plandomain.ErrPlanInUse):
		return true
	case errors.Is(err, membershipdomain.ErrInvalidID),
		errors.Is(err, membershipdomain.ErrInvalidMember),
		errors.Is(err, membershipdomain.ErrInvalidPlan),
		errors.Is(err, membershipdomain.ErrInvalidStatus):
		return true
	case errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrInvalidMember),
		errors.Is(err, paymentdomain.ErrInvalidBranch),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidCurrency),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidMonth):
		return true
	case errors.Is(err, periodlockdomain.ErrInvalidMonth),
		errors.Is(err, periodlockdomain.ErrInvalidBranch),
		errors.Is(err, dashboarddomain.ErrInvalidMonth):
		return true
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authservice.ErrTenantNotAllowed),
		errors.Is(err, plandomain.ErrForeignBranch),
		errors.Is(err, periodlockdomain.ErrForeignBranch),
		errors.Is(err, tenantdomain.ErrNotMember):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, branchdomain.ErrNotFound),
		errors.Is(err, memberdomain.ErrNotFound),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, membershipdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, periodlockdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrRecordNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, plandomain.ErrNameTaken),
		errors.Is(err, plandomain.ErrPlanArchived),
		errors.Is(err, branchdomain.ErrBranchInUse),
		errors.Is(err, memberdomain.ErrMemberInUse),
		errors.Is(err, membershipdomain.ErrPlanArchived),
		errors.Is(err, membershipdomain.ErrNotActive),
		errors.Is(err, paymentdomain.ErrPeriodLocked):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, signupdomain.ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog feeds the request logger. It mirrors mapError without
// rendering anything.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	var locked *billingdomain.LockedError
	if errors.As(err, &locked) {
		return "billing_locked", billingdomain.LockedCode
	}
	if vErr := asValidationErrors(err); vErr != nil && len(vErr.Errors) > 0 {
		return "validation_error", vErr.Errors[0].Code
	}
	if isValidationError(err) {
		return "validation_error", validationErrorCode(err)
	}
	switch {
	case isForbiddenError(err):
		return "forbidden", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	case isConflictError(err):
		return "conflict", err.Error()
	default:
		return "internal_error", ""
	}
}
