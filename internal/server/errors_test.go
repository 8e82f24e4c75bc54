package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
)

func TestPlanStateErrorsRenderAsBadRequest(t *testing.T) {
	// Restoring an active plan is an invalid state, not a conflict.
	status, payload := mapError(plandomain.ErrNotArchived)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	assert.Equal(t, "plan_not_archived", payload.Errors[0].Code)

	// A delete blocked by dependents is a 400 whose code names the
	// dependency type.
	status, payload = mapError(plandomain.ErrPlanInUse)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	assert.Equal(t, "plan_in_use_by_memberships", payload.Errors[0].Code)

	// Duplicate scoped names stay conflicts.
	status, payload = mapError(plandomain.ErrNameTaken)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", payload.Type)
}
