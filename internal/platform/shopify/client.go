package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/fatflowers/shopcredits/pkg/config"
	"github.com/fatflowers/shopcredits/pkg/logctx"
)

const (
	tokenExchangeGrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	idTokenType            = "urn:ietf:params:oauth:token-type:id_token"
	onlineAccessTokenType  = "urn:shopify:params:oauth:token-type:online-access-token"

	activeSubscriptionsQuery = `query {
  currentAppInstallation {
    activeSubscriptions {
      id
      name
      status
      currentPeriodEnd
      createdAt
      trialDays
      test
    }
  }
}`
)

// Client talks to the Shopify Admin API on behalf of a shop. Every call is
// bounded by the configured request timeout; failures are Upstream errors
// and must never be read as "no subscription".
type Client struct {
	http    *http.Client
	cfg     config.ShopifyConfig
	log     *zap.SugaredLogger
	baseURL func(shop string) string
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		http:    &http.Client{},
		cfg:     cfg.Shopify,
		log:     log,
		baseURL: func(shop string) string { return "https://" + shop },
	}
}

func (c *Client) timeout() time.Duration {
	if c.cfg.RequestTimeout > 0 {
		return c.cfg.RequestTimeout
	}
	return config.DefaultRequestTimeout
}

// ExchangeSessionToken trades a session token for an online access token.
func (c *Client) ExchangeSessionToken(ctx context.Context, shop, sessionToken string) (string, error) {
	if !ValidShopDomain(shop) {
		return "", apperr.Validation("shopify.ExchangeSessionToken", fmt.Sprintf("invalid shop %q", shop))
	}
	body, _ := json.Marshal(map[string]string{
		"client_id":            c.cfg.APIKey,
		"client_secret":        c.cfg.APISecret,
		"grant_type":           tokenExchangeGrantType,
		"subject_token":        sessionToken,
		"subject_token_type":   idTokenType,
		"requested_token_type": onlineAccessTokenType,
	})

	var tok struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := c.do(ctx, c.baseURL(shop)+"/admin/oauth/access_token", "", body, &tok); err != nil {
		return "", apperr.Upstream("shopify.ExchangeSessionToken", err)
	}
	if tok.AccessToken == "" {
		return "", apperr.Upstream("shopify.ExchangeSessionToken", fmt.Errorf("empty access token"))
	}
	return tok.AccessToken, nil
}

// ActiveSubscriptions returns currentAppInstallation.activeSubscriptions.
func (c *Client) ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]AppSubscription, error) {
	if !ValidShopDomain(shop) {
		return nil, apperr.Validation("shopify.ActiveSubscriptions", fmt.Sprintf("invalid shop %q", shop))
	}
	body, _ := json.Marshal(map[string]string{"query": activeSubscriptionsQuery})

	var resp struct {
		Data struct {
			CurrentAppInstallation *struct {
				ActiveSubscriptions []AppSubscription `json:"activeSubscriptions"`
			} `json:"currentAppInstallation"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	url := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL(shop), c.cfg.APIVersion)
	if err := c.do(ctx, url, accessToken, body, &resp); err != nil {
		return nil, apperr.Upstream("shopify.ActiveSubscriptions", err)
	}
	if len(resp.Errors) > 0 {
		return nil, apperr.Upstream("shopify.ActiveSubscriptions", fmt.Errorf("graphql: %s", resp.Errors[0].Message))
	}
	if resp.Data.CurrentAppInstallation == nil {
		return nil, apperr.Upstream("shopify.ActiveSubscriptions", fmt.Errorf("missing currentAppInstallation"))
	}
	logctx.FromCtx(ctx, c.log).Debugw("shopify_active_subscriptions", "shop", shop, "count", len(resp.Data.CurrentAppInstallation.ActiveSubscriptions))
	return resp.Data.CurrentAppInstallation.ActiveSubscriptions, nil
}

func (c *Client) do(ctx context.Context, url, accessToken string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("X-Shopify-Access-Token", accessToken)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, truncate(raw, 256))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
