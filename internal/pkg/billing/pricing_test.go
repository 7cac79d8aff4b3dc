package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlans(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/prices", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("active"))
		require.Equal(t, "data.product", r.URL.Query().Get("expand[]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{
					"id": "price_pack10",
					"unit_amount": 4900,
					"currency": "pln",
					"recurring": null,
					"product": {
						"id": "prod_pack10",
						"name": "Pakiet 10 zdjęć",
						"description": "10 professional photos",
						"metadata": {"credits": "10"}
					}
				},
				{
					"id": "price_premium_m",
					"unit_amount": 2900,
					"currency": "pln",
					"recurring": {"interval": "month"},
					"product": {
						"id": "prod_premium",
						"name": "Premium",
						"description": "Premium subscription",
						"metadata": {"credits": "50"}
					}
				},
				{
					"id": "price_pro_y",
					"unit_amount": 99900,
					"currency": "pln",
					"recurring": {"interval": "year"},
					"product": {
						"id": "prod_pro",
						"name": "Pro",
						"description": "Pro subscription",
						"metadata": {}
					}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewPricingClient("sk_test_123", nil).WithBaseURL(server.URL)
	plans, err := client.ListPlans(context.Background())

	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "Bearer sk_test_123", gotAuth)

	pack := plans[0]
	assert.Equal(t, "payment", pack.Mode)
	assert.Equal(t, "one-time", pack.Period)
	assert.Equal(t, 10, pack.Credits)
	assert.Equal(t, "PLN", pack.Currency)
	require.NotNil(t, pack.Price.OneTime)
	assert.Equal(t, 49.0, *pack.Price.OneTime)
	require.NotNil(t, pack.OriginalPrice)
	assert.Equal(t, 59.0, *pack.OriginalPrice)
	assert.Equal(t, "Oszczędzasz 10 zł", pack.Savings)

	monthly := plans[1]
	assert.Equal(t, "subscription", monthly.Mode)
	assert.Equal(t, "monthly", monthly.Period)
	require.NotNil(t, monthly.Price.Monthly)
	assert.Equal(t, 29.0, *monthly.Price.Monthly)
	assert.Nil(t, monthly.OriginalPrice)
	assert.Empty(t, monthly.Savings)

	yearly := plans[2]
	assert.Equal(t, "yearly", yearly.Period)
	require.NotNil(t, yearly.Price.Yearly)
	assert.Equal(t, 999.0, *yearly.Price.Yearly)
}

func TestListPlans_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key"}}`))
	}))
	defer server.Close()

	client := NewPricingClient("sk_bad", nil).WithBaseURL(server.URL)
	_, err := client.ListPlans(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCreditsForProduct(t *testing.T) {
	tests := []struct {
		name     string
		product  stripeProduct
		expected int
	}{
		{
			name:     "Metadata wins",
			product:  stripeProduct{Name: "Pakiet 25 zdjęć", Metadata: map[string]string{"credits": "30"}},
			expected: 30,
		},
		{
			name:     "Invalid metadata falls back to name",
			product:  stripeProduct{Name: "Pakiet 25 zdjęć", Metadata: map[string]string{"credits": "abc"}},
			expected: 25,
		},
		{
			name:     "600 pack",
			product:  stripeProduct{Name: "Mega 600"},
			expected: 600,
		},
		{
			name:     "5 pack",
			product:  stripeProduct{Name: "Starter 5"},
			expected: 5,
		},
		{
			name:     "No hint defaults to one credit",
			product:  stripeProduct{Name: "Single photo"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, creditsForProduct(tt.product))
		})
	}
}
