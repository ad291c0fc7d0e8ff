package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates_Wrapped(t *testing.T) {
	err := fmt.Errorf("load trip: %w", NewNotFoundError("Trip", "abc"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, "load trip: Trip not found: abc", err.Error())

	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsConflict(NewConflictError("stale")))
	assert.True(t, IsForbidden(NewForbiddenError("nope")))
	assert.True(t, IsInvalidState(NewInvalidStateError("open", "completed")))
	assert.EqualError(t, NewInvalidStateError("open", "completed"), "cannot transition from open to completed")
}

func TestNewPaginatedResult(t *testing.T) {
	r := NewPaginatedResult([]int{1, 2}, 41, 3, 20)
	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, int64(41), r.Total)

	empty := NewPaginatedResult([]int{}, 0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
}
