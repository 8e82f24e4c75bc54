package domain

import "errors"

// LockedCode is the machine-readable code clients branch on. Message text is
// locale-dependent and must never be parsed.
const LockedCode = "TENANT_BILLING_LOCKED"

// LockedError is returned when the billing gate denies a request.
type LockedError struct {
	Status Status
	Class  RequestClass
}

func (e *LockedError) Error() string {
	return e.Message()
}

// Message selects the human-readable variant for the (status, class) pair.
func (e *LockedError) Message() string {
	switch {
	case e.Status == StatusSuspended && e.Class == ClassLogin:
		return "login blocked for suspended tenant"
	case e.Status == StatusSuspended:
		return "all access blocked for suspended tenant"
	case e.Status == StatusPastDue:
		return "mutations blocked for past-due tenant"
	default:
		return "tenant access locked"
	}
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidStatus   = errors.New("invalid_billing_status")
	ErrRecordNotFound  = errors.New("billing_record_not_found")
	ErrStatusImmutable = errors.New("billing_status_not_client_writable")
)
