package coc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
)

var ErrNotFound = errors.New("coc: not found")

type Client struct {
	token   string
	baseURL string
	client  *fasthttp.Client
}

func New(token, baseURL string, timeout time.Duration) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// ClanMembers returns the current roster of a clan. An empty roster is
// reported as an error so callers never initialize a competition from a
// half-fetched member list.
func (c *Client) ClanMembers(ctx context.Context, clanTag string) ([]ClanMember, error) {
	endpoint := fmt.Sprintf("%s/clans/%s/members", c.baseURL, url.PathEscape(clanTag))
	result, err := doRequest[clanMemberList](ctx, c, fasthttp.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("clan %s returned no members", clanTag)
	}
	return result.Items, nil
}

// Player returns the full player record, including achievements and unit
// levels.
func (c *Client) Player(ctx context.Context, playerTag string) (*Player, error) {
	endpoint := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(playerTag))
	return doRequest[Player](ctx, c, fasthttp.MethodGet, endpoint, nil)
}

// VerifyToken checks an in-game API token against the player it claims to
// belong to. A non-ok verification status is an error.
func (c *Client) VerifyToken(ctx context.Context, playerTag, token string) error {
	endpoint := fmt.Sprintf("%s/players/%s/verifytoken", c.baseURL, url.PathEscape(playerTag))
	body, err := json.Marshal(verifyTokenRequest{Token: token})
	if err != nil {
		return err
	}
	result, err := doRequest[verifyTokenResponse](ctx, c, fasthttp.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	if result.Status != "ok" {
		return fmt.Errorf("token verification failed for %s: %s", playerTag, result.Status)
	}
	return nil
}

func doRequest[T any](ctx context.Context, client *Client, method, endpoint string, body []byte) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+client.token)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	switch {
	case resp.StatusCode() == fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	case resp.StatusCode() < 200 || resp.StatusCode() > 299:
		return nil, fmt.Errorf("clash API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode clash API response: %w", err)
	}
	return &result, nil
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Tag    string `json:"tag"`
	Token  string `json:"token"`
	Status string `json:"status"`
}
