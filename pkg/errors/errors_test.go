package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/careatlas/clauseguard/pkg/errors"
)

func TestAppError_Error(t *testing.T) {
	t.Parallel()
	err := apperrors.New(apperrors.ErrCodeEmbeddingBackend, "embedding request rejected")
	assert.Equal(t, "[EMB_001] embedding request rejected", err.Error())

	withDetail := err.WithDetail("attribute=Medicare Fee Schedule")
	assert.Equal(t, "[EMB_001] embedding request rejected: attribute=Medicare Fee Schedule", withDetail.Error())
	// Original is untouched.
	assert.Empty(t, err.Detail)
}

func TestWrap(t *testing.T) {
	t.Parallel()
	cause := stderrors.New("connection refused")
	err := apperrors.Wrap(cause, apperrors.ErrCodeEmbeddingBackend, "embedding request failed")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperrors.ErrCodeEmbeddingBackend, err.Code)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, apperrors.Wrap(nil, apperrors.ErrCodeInternal, "ignored"))
}

func TestWrap_InternalPreservesInnerCode(t *testing.T) {
	t.Parallel()
	inner := apperrors.New(apperrors.ErrCodeCacheError, "cache read failed")
	err := apperrors.Wrap(inner, apperrors.ErrCodeInternal, "classification failed")
	assert.Equal(t, apperrors.ErrCodeCacheError, err.Code)
}

func TestIsCode(t *testing.T) {
	t.Parallel()
	inner := apperrors.New(apperrors.ErrCodeEmbeddingTimeout, "deadline exceeded")
	outer := apperrors.Wrap(inner, apperrors.ErrCodeStageFailure, "semantic stage failed")

	assert.True(t, apperrors.IsCode(outer, apperrors.ErrCodeStageFailure))
	assert.True(t, apperrors.IsCode(outer, apperrors.ErrCodeEmbeddingTimeout))
	assert.False(t, apperrors.IsCode(outer, apperrors.ErrCodeNotFound))
	assert.False(t, apperrors.IsCode(nil, apperrors.ErrCodeNotFound))
}

func TestGetCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, apperrors.ErrorCode("OK"), apperrors.GetCode(nil))
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(stderrors.New("plain")))
	assert.Equal(t, apperrors.ErrCodeBadRequest,
		apperrors.GetCode(apperrors.New(apperrors.ErrCodeBadRequest, "bad payload")))
}

func TestFromCode(t *testing.T) {
	t.Parallel()
	err := apperrors.FromCode(apperrors.ErrCodeBadRequest)
	assert.Equal(t, apperrors.ErrCodeBadRequest, err.Code)
	assert.Equal(t, "bad request", err.Message)
}
