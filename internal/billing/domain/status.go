// Package domain defines the tenant billing state machine and the gate
// decision logic applied to every request.
package domain

// Status is the billing state of a tenant.
type Status string

const (
	StatusTrial     Status = "TRIAL"
	StatusActive    Status = "ACTIVE"
	StatusPastDue   Status = "PAST_DUE"
	StatusSuspended Status = "SUSPENDED"
)

// Valid reports whether s is a known billing status.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPastDue, StatusSuspended:
		return true
	default:
		return false
	}
}

// RequestClass classifies an inbound request for gate evaluation.
type RequestClass string

const (
	ClassLogin  RequestClass = "LOGIN"
	ClassRead   RequestClass = "READ"
	ClassMutate RequestClass = "MUTATE"
)

// Decision is the outcome of evaluating a request against a billing status.
type Decision struct {
	Allowed bool
	// IncludeStatus signals the login response should carry the billing
	// status so the client can degrade to read-only.
	IncludeStatus bool
}

// Evaluate applies the billing decision table. It is pure: callers are
// responsible for reading the status fresh from the store for every request.
//
//	            LOGIN   READ    MUTATE
//	TRIAL       allow   allow   allow
//	ACTIVE      allow   allow   allow
//	PAST_DUE    allow*  allow   deny     (* status included in response)
//	SUSPENDED   deny    deny    deny
func Evaluate(status Status, class RequestClass) Decision {
	switch status {
	case StatusTrial, StatusActive:
		return Decision{Allowed: true}
	case StatusPastDue:
		if class == ClassMutate {
			return Decision{Allowed: false}
		}
		return Decision{Allowed: true, IncludeStatus: class == ClassLogin}
	case StatusSuspended:
		return Decision{Allowed: false}
	default:
		// Unknown states fail closed.
		return Decision{Allowed: false}
	}
}
