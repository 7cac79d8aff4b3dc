package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	timestamp := fmt.Sprintf("%d", ts.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignature(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	t.Run("Valid signature", func(t *testing.T) {
		header := signPayload(t, payload, testWebhookSecret, now)
		assert.True(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now))
	})

	t.Run("Signature just inside tolerance", func(t *testing.T) {
		header := signPayload(t, payload, testWebhookSecret, now.Add(-DefaultSignatureTolerance))
		assert.True(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now))
	})

	t.Run("Expired signature", func(t *testing.T) {
		header := signPayload(t, payload, testWebhookSecret, now.Add(-DefaultSignatureTolerance-time.Second))
		assert.False(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now))
	})

	t.Run("Future timestamp beyond tolerance", func(t *testing.T) {
		header := signPayload(t, payload, testWebhookSecret, now.Add(DefaultSignatureTolerance+time.Second))
		assert.False(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now))
	})

	t.Run("Wrong secret", func(t *testing.T) {
		header := signPayload(t, payload, "whsec_other", now)
		assert.False(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now))
	})

	t.Run("Tampered payload", func(t *testing.T) {
		header := signPayload(t, payload, testWebhookSecret, now)
		tampered := []byte(`{"id":"evt_1","type":"customer.subscription.created"}`)
		assert.False(t, VerifyWebhookSignature(tampered, header, testWebhookSecret, now))
	})

	t.Run("Multiple v1 entries, one valid", func(t *testing.T) {
		valid := signPayload(t, payload, testWebhookSecret, now)
		header := fmt.Sprintf("%s,v1=%s", valid, hex.EncodeToString(make([]byte, 32)))
		assert.True(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now))
	})

	t.Run("Malformed headers", func(t *testing.T) {
		cases := []string{
			"",
			"t=,v1=",
			"t=notanumber,v1=abcdef",
			"v1=abcdef",
			fmt.Sprintf("t=%d", now.Unix()),
			"garbage",
		}
		for _, header := range cases {
			assert.False(t, VerifyWebhookSignature(payload, header, testWebhookSecret, now), "header %q", header)
		}
	})

	t.Run("Empty secret never verifies", func(t *testing.T) {
		header := signPayload(t, payload, "", now)
		assert.False(t, VerifyWebhookSignature(payload, header, "", now))
	})
}
