package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wizerunkowo/wizerunkowo/internal/pkg/env"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// PricingPlan is the public shape of one purchasable plan.
type PricingPlan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         Price    `json:"price"`
	Credits       int      `json:"credits"`
	Period        string   `json:"period"` // one-time, monthly, yearly
	PriceID       string   `json:"price_id"`
	Mode          string   `json:"mode"` // payment or subscription
	Currency      string   `json:"currency"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Savings       string   `json:"savings,omitempty"`
}

// Price holds the amount for the plan's billing period.
type Price struct {
	OneTime *float64 `json:"one_time,omitempty"`
	Monthly *float64 `json:"monthly,omitempty"`
	Yearly  *float64 `json:"yearly,omitempty"`
}

// PricingClient fetches the live price catalog from the payment provider.
type PricingClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewPricingClient creates a pricing client with the given secret key.
func NewPricingClient(secretKey string, httpClient *http.Client) *PricingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &PricingClient{
		baseURL:    stripeAPIBase,
		secretKey:  secretKey,
		httpClient: httpClient,
	}
}

// NewPricingClientFromEnv creates a pricing client from STRIPE_SECRET_KEY.
func NewPricingClientFromEnv() (*PricingClient, error) {
	key := strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	if key == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	return NewPricingClient(key, nil), nil
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *PricingClient) WithBaseURL(baseURL string) *PricingClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type stripePriceList struct {
	Data []stripePrice `json:"data"`
}

type stripePrice struct {
	ID         string           `json:"id"`
	UnitAmount int64            `json:"unit_amount"`
	Currency   string           `json:"currency"`
	Recurring  *stripeRecurring `json:"recurring"`
	Product    stripeProduct    `json:"product"`
}

type stripeRecurring struct {
	Interval string `json:"interval"`
}

type stripeProduct struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// ListPlans fetches all active prices and maps them to the plan catalog.
func (c *PricingClient) ListPlans(ctx context.Context) ([]PricingPlan, error) {
	query := url.Values{}
	query.Set("active", "true")
	query.Add("expand[]", "data.product")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prices?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list stripePriceList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode price list: %w", err)
	}

	plans := make([]PricingPlan, 0, len(list.Data))
	for _, price := range list.Data {
		plans = append(plans, mapPrice(price))
	}
	return plans, nil
}

// mapPrice converts one provider price into a plan entry. Credits come from
// product metadata, falling back to the amount named in the product title.
func mapPrice(price stripePrice) PricingPlan {
	amount := float64(price.UnitAmount) / 100
	credits := creditsForProduct(price.Product)

	period := "one-time"
	mode := "payment"
	if price.Recurring != nil {
		mode = "subscription"
		if price.Recurring.Interval == "year" {
			period = "yearly"
		} else {
			period = "monthly"
		}
	}

	plan := PricingPlan{
		ID:          price.Product.ID,
		Name:        price.Product.Name,
		Description: price.Product.Description,
		Credits:     credits,
		Period:      period,
		PriceID:     price.ID,
		Mode:        mode,
		Currency:    strings.ToUpper(price.Currency),
	}

	switch period {
	case "one-time":
		plan.Price.OneTime = &amount
		// Marketing prices shown next to the real one
		original := math.Round(amount * 1.2)
		plan.OriginalPrice = &original
		plan.Savings = fmt.Sprintf("Oszczędzasz %d zł", int(math.Round(amount*0.2)))
	case "monthly":
		plan.Price.Monthly = &amount
	case "yearly":
		plan.Price.Yearly = &amount
	}

	return plan
}

func creditsForProduct(product stripeProduct) int {
	if v, ok := product.Metadata["credits"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	for _, n := range []int{600, 50, 25, 10, 5} {
		if strings.Contains(product.Name, strconv.Itoa(n)) {
			return n
		}
	}
	return 1
}
