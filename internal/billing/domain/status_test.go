package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateDecisionTable(t *testing.T) {
	cases := []struct {
		name          string
		status        Status
		class         RequestClass
		allowed       bool
		includeStatus bool
	}{
		{"trial login", StatusTrial, ClassLogin, true, false},
		{"trial read", StatusTrial, ClassRead, true, false},
		{"trial mutate", StatusTrial, ClassMutate, true, false},
		{"active login", StatusActive, ClassLogin, true, false},
		{"active read", StatusActive, ClassRead, true, false},
		{"active mutate", StatusActive, ClassMutate, true, false},
		{"past due login", StatusPastDue, ClassLogin, true, true},
		{"past due read", StatusPastDue, ClassRead, true, false},
		{"past due mutate", StatusPastDue, ClassMutate, false, false},
		{"suspended login", StatusSuspended, ClassLogin, false, false},
		{"suspended read", StatusSuspended, ClassRead, false, false},
		{"suspended mutate", StatusSuspended, ClassMutate, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate(tc.status, tc.class)
			assert.Equal(t, tc.allowed, decision.Allowed)
			assert.Equal(t, tc.includeStatus, decision.IncludeStatus)
		})
	}
}

func TestEvaluateUnknownStatusFailsClosed(t *testing.T) {
	for _, class := range []RequestClass{ClassLogin, ClassRead, ClassMutate} {
		decision := Evaluate(Status("CANCELLED"), class)
		assert.False(t, decision.Allowed)
		assert.False(t, decision.IncludeStatus)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusTrial.Valid())
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusPastDue.Valid())
	assert.True(t, StatusSuspended.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("active").Valid())
}

func TestLockedErrorMessage(t *testing.T) {
	suspendedLogin := &LockedError{Status: StatusSuspended, Class: ClassLogin}
	assert.Equal(t, "login blocked for suspended tenant", suspendedLogin.Message())

	suspendedRead := &LockedError{Status: StatusSuspended, Class: ClassRead}
	assert.Equal(t, "all access blocked for suspended tenant", suspendedRead.Message())

	pastDueMutate := &LockedError{Status: StatusPastDue, Class: ClassMutate}
	assert.Equal(t, "mutations blocked for past-due tenant", pastDueMutate.Message())

	unknown := &LockedError{Status: Status("CANCELLED"), Class: ClassRead}
	assert.Equal(t, "tenant access locked", unknown.Message())

	assert.Equal(t, suspendedLogin.Message(), suspendedLogin.Error())
}
