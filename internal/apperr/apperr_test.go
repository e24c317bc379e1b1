package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("vehicle %s is already inside", "KA-01"))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "wrapped: vehicle KA-01 is already inside", err.Error())
}

func TestAlreadyProcessedCarriesStatus(t *testing.T) {
	err := AlreadyProcessed(models.StatusApproved)
	st, ok := StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, models.StatusApproved, st)

	_, ok = StatusOf(NotFound("x"))
	assert.False(t, ok)
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused on 10.0.0.3")
	err := Internal(cause)
	assert.Equal(t, "internal error", err.Error())
	assert.True(t, errors.Is(err, ErrInternal))
	assert.True(t, errors.Is(err, cause))
}

func TestFromStore(t *testing.T) {
	assert.Nil(t, FromStore(nil, "staff"))
	assert.True(t, errors.Is(FromStore(storage.ErrNotFound, "staff"), ErrNotFound))
	assert.True(t, errors.Is(FromStore(storage.ErrDuplicateKey, "staff"), ErrConflict))
	assert.True(t, errors.Is(FromStore(errors.New("boom"), "staff"), ErrInternal))

	orig := InvalidState("nope")
	assert.Same(t, orig, FromStore(orig, "staff"))
}
