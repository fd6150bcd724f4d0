package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeKind(t *testing.T) {
	tests := []struct {
		code ErrorCode
		kind ErrorKind
	}{
		{CodeAuthFailed, KindAuth},
		{CodeInvalidValue, KindValidation},
		{CodeInvalidAddress, KindValidation},
		{CodeInvalidType, KindValidation},
		{CodeOwnerEmpty, KindValidation},
		{CodeDomainEmpty, KindValidation},
		{CodeOwnerInUse, KindConflict},
		{CodeDomainInUse, KindConflict},
		{CodeValuePartOfList, KindConflict},
		{CodeValueNotPartOfList, KindNotFound},
		{CodeCatalystNotFound, KindNotFound},
		{CodeCatalystAlreadyRemoved, KindAlreadyRemoved},
		{CodeInvalidIndex, KindIndexOutOfRange},
		{ErrorCode("BOGUS"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.code.Kind())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "ERROR_OWNER_IN_USE", ErrOwnerInUse.Error())
	assert.Equal(t, "ERROR_INVALID_VALUE: empty value", NewError(CodeInvalidValue, "empty value").Error())
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NewErrorWithDetails(CodeOwnerInUse, "owner registered", "owner", "0xabc")
	wrapped := fmt.Errorf("add: %w", err)

	assert.True(t, errors.Is(wrapped, ErrOwnerInUse))
	assert.False(t, errors.Is(wrapped, ErrDomainInUse))
	assert.False(t, errors.Is(errors.New("ERROR_OWNER_IN_USE"), ErrOwnerInUse))
}

func TestCodeOfAndKindOf(t *testing.T) {
	err := fmt.Errorf("get: %w", IndexError(3, 2))

	assert.Equal(t, CodeInvalidIndex, CodeOf(err))
	assert.Equal(t, KindIndexOutOfRange, KindOf(err))
	assert.True(t, IsRegistryError(err))

	plain := errors.New("disk full")
	assert.Equal(t, ErrorCode(""), CodeOf(plain))
	assert.Equal(t, KindUnknown, KindOf(plain))
	assert.False(t, IsRegistryError(plain))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestIndexErrorDetails(t *testing.T) {
	err := IndexError(-1, 0)
	assert.Equal(t, "-1", err.Details["index"])
	assert.Equal(t, "0", err.Details["size"])
}
