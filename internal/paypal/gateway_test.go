package paypal

import (
	"testing"

	"github.com/go-faster/errors"
	pp "github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/luxora-commerce/internal/domain/payment"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"10.5", "10.50"},
		{"10.555", "10.56"},
		{"0", "0.00"},
		{"199.99", "199.99"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1", FormatQuantity(1))
	assert.Equal(t, "42", FormatQuantity(42))
}

func TestApproveLink(t *testing.T) {
	t.Run("finds approve rel", func(t *testing.T) {
		links := []pp.Link{
			{Rel: "self", Href: "https://api.paypal.example/orders/1"},
			{Rel: "approve", Href: "https://paypal.example/checkoutnow?token=1"},
			{Rel: "capture", Href: "https://api.paypal.example/orders/1/capture"},
		}
		assert.Equal(t, "https://paypal.example/checkoutnow?token=1", approveLink(links))
	})

	t.Run("empty when absent", func(t *testing.T) {
		links := []pp.Link{{Rel: "self", Href: "https://api.paypal.example/orders/1"}}
		assert.Empty(t, approveLink(links))
	})
}

func TestWrapProviderError(t *testing.T) {
	t.Run("api error uses provider message", func(t *testing.T) {
		cause := &pp.ErrorResponse{Name: "UNPROCESSABLE_ENTITY", Message: "Order already captured."}

		err := wrapProviderError(cause, "capture payment")

		var gwErr *payment.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Contains(t, gwErr.Message, "Order already captured.")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("api error falls back to name", func(t *testing.T) {
		cause := &pp.ErrorResponse{Name: "INVALID_REQUEST"}

		err := wrapProviderError(cause, "create payment")

		var gwErr *payment.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Contains(t, gwErr.Message, "INVALID_REQUEST")
	})

	t.Run("transport error is generic", func(t *testing.T) {
		cause := errors.New("connection refused")

		err := wrapProviderError(cause, "create payment")

		var gwErr *payment.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, "create payment failed", gwErr.Message)
		assert.ErrorIs(t, err, cause)
	})
}
