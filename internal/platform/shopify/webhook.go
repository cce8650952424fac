package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
)

// Webhook headers set by Shopify on every delivery.
const (
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
	HeaderAPIVersion = "X-Shopify-API-Version"
)

// Webhook topics the service understands.
const (
	TopicAppSubscriptionsUpdate = "app_subscriptions/update"
	TopicAppUninstalled         = "app/uninstalled"
)

var shopDomainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop looks like "<name>.myshopify.com".
// Only such hosts are ever dialled.
func ValidShopDomain(shop string) bool {
	return shopDomainRe.MatchString(strings.ToLower(strings.TrimSpace(shop)))
}

// SignWebhook returns the base64 HMAC-SHA256 of body, as Shopify sends it.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks the X-Shopify-Hmac-Sha256 header against the raw
// request body using a constant-time comparison.
func VerifyWebhook(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
