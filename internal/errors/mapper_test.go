package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/moviease/internal/errors"
	"github.com/oggyb/moviease/internal/matching"
	"github.com/oggyb/moviease/internal/utils/pagination"
)

func TestMapCodes(t *testing.T) {
	type req struct {
		UserID string `validate:"required"`
	}
	verr := validator.New().Struct(req{})
	require.Error(t, verr)

	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", verr, codes.InvalidArgument},
		{"bad token", fmt.Errorf("page: %w", pagination.ErrInvalidToken), codes.InvalidArgument},
		{"not couple", fmt.Errorf("g1: %w", matching.ErrNotCouple), codes.FailedPrecondition},
		{"not found", fmt.Errorf("group: %w", gorm.ErrRecordNotFound), codes.NotFound},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", errors.New("boom"), codes.Internal},
		{"already status", status.Error(codes.Unavailable, "later"), codes.Unavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(svcErr.Map(tc.err)))
		})
	}
}

func TestMapNil(t *testing.T) {
	assert.NoError(t, svcErr.Map(nil))
}

func TestValidationMessageNamesFields(t *testing.T) {
	type req struct {
		Limit int `validate:"max=10"`
	}
	err := svcErr.Map(validator.New().Struct(req{Limit: 50}))
	assert.Contains(t, status.Convert(err).Message(), "Limit: max=10")
}
