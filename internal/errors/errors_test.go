package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCategoryFormat, CodeBadMagic, "unrecognized container magic")
	assert.Equal(t, "[FORMAT:BAD_MAGIC] unrecognized container magic", err.Error())

	wrapped := Wrap(ErrCategoryStorage, CodeGetFailed, "download container", errors.New("connection reset"))
	assert.Contains(t, wrapped.Error(), "[STORAGE:GET_FAILED]")
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestUnwrapChain(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError(CodePutFailed, "publish container", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsMatchesCategoryAndCode(t *testing.T) {
	err := NewFormatError(CodeTruncated, "container ends mid-section", nil)
	target := New(ErrCategoryFormat, CodeTruncated, "")

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, New(ErrCategoryFormat, CodeBadMagic, "")))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, IsRetryable(NewStorageError(CodePutFailed, "upload", nil)))
	assert.True(t, IsRetryable(NewStorageError(CodeGetFailed, "download", nil)))
	assert.False(t, IsRetryable(NewFormatError(CodeBadMagic, "magic", nil)))
	assert.False(t, IsRetryable(NewQueryError(CodeUnknownSlot, "no such slot")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestCategoryAndCodeExtraction(t *testing.T) {
	err := NewEncodingError(CodeDecodeFailed, "varint overflow", nil)

	assert.Equal(t, ErrCategoryEncoding, GetCategory(err))
	assert.Equal(t, CodeDecodeFailed, GetCode(err))

	// Extraction walks wrapped chains.
	deep := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ErrCategoryEncoding, GetCategory(deep))

	assert.Equal(t, ErrorCategory(""), GetCategory(errors.New("plain")))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestFormatErrorPredicates(t *testing.T) {
	assert.True(t, IsFormatError(NewFormatError(CodeBadMagic, "", nil)))
	assert.True(t, IsFormatError(NewFormatError(CodeBadVersion, "", nil)))
	assert.False(t, IsFormatError(NewFormatError(CodeTruncated, "", nil)))

	assert.True(t, IsCorruptContainer(NewFormatError(CodeTruncated, "", nil)))
	assert.True(t, IsCorruptContainer(NewFormatError(CodeCorruptContainer, "", nil)))
	assert.False(t, IsCorruptContainer(NewFormatError(CodeBadMagic, "", nil)))
}
