package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorUnwrap(t *testing.T) {
	err := NewStoreError("sqlite", "load", "default", ErrDatabaseError)

	assert.True(t, Is(err, ErrDatabaseError))
	assert.Contains(t, err.Error(), `store error [sqlite] load "default"`)

	noKey := NewStoreError("file", "open", "", fmt.Errorf("boom"))
	assert.Equal(t, "store error [file] open: boom", noKey.Error())
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := Wrap(NewValidationError("quantity", -1, "must be positive"), "add trade")

	assert.True(t, Is(err, ErrInputValidation))

	var ve *ValidationError
	assert.True(t, As(err, &ve))
	assert.Equal(t, "quantity", ve.Field)
}

func TestImportError(t *testing.T) {
	err := NewImportError("csv", 3, fmt.Errorf("bad price"))
	assert.Equal(t, "import error [csv] line 3: bad price", err.Error())

	err = NewImportError("json", 0, ErrUnsupportedFormat)
	assert.True(t, Is(err, ErrUnsupportedFormat))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
	assert.EqualError(t, Wrapf(ErrTradeNotFound, "trade %s", "abc"), "trade abc: trade not found")
}
