package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docuforms/wallet-service/pkg/gateway"
)

func TestMapStatusToError(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		expectedError error
	}{
		{
			name:          "BadRequest",
			statusCode:    400,
			expectedError: gateway.ErrInvalidOrder,
		},
		{
			name:          "Unauthorized",
			statusCode:    401,
			expectedError: gateway.ErrAuthFailed,
		},
		{
			name:          "TooManyRequests",
			statusCode:    429,
			expectedError: gateway.ErrRateLimited,
		},
		{
			name:          "InternalServerError",
			statusCode:    500,
			expectedError: gateway.ErrServerError,
		},
		{
			name:          "BadGateway",
			statusCode:    502,
			expectedError: gateway.ErrServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := gateway.MapStatusToError(tc.statusCode)

			assert.Error(t, err, "Expected an error for status code %d", tc.statusCode)
			assert.Equal(t, tc.expectedError, err)
		})
	}
}
