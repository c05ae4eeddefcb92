// Package shopify implements the wire-level conventions of Shopify
// webhooks: HMAC signature verification and the delivery headers.
package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Webhook header names as sent by Shopify
const (
	HeaderHmac       = "X-Shopify-Hmac-SHA256"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// ComputeSignature returns the base64-encoded HMAC-SHA256 of the raw
// request body under the shared secret. This matches the digest Shopify
// places in the X-Shopify-Hmac-SHA256 header.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time. An empty
// header never verifies, even against an empty body digest.
func VerifySignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
