// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bambucloud/src/logging"
	"bambucloud/src/model"
)

const taskListLimit = "500"

// Client is an authenticated session against the vendor cloud. Create
// one with Login; methods are safe for concurrent use.
type Client struct {
	region  model.Region
	baseURL string
	http    *http.Client
	token   Token
}

// StatusError is returned when the cloud answers with a non-2xx code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cloud returned status %d: %s", e.Code, e.Body)
}

// Login authenticates with email/password against the region's
// endpoint and returns a session client. The access token in the
// response is a JWT carrying the username claim.
func Login(ctx context.Context, region model.Region, email, password string) (*Client, error) {
	return login(ctx, region, region.BaseURL(), email, password)
}

func login(ctx context.Context, region model.Region, baseURL, email, password string) (*Client, error) {
	c := &Client{
		region:  region,
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"account": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/v1/user-service/user/login", nil, body, nil, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	token, err := ParseToken(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("login response token invalid: %w", err)
	}
	c.token = token

	logging.Log(fmt.Sprintf("Logged in to %s region as %s", region, token.Username), slog.LevelInfo)
	return c, nil
}

// Region reports the region the client was logged in against.
func (c *Client) Region() model.Region {
	return c.region
}

// Username reports the username claim from the session token.
func (c *Client) Username() string {
	return c.token.Username
}

// MQTTHost returns the MQTT broker host for the client's region.
func (c *Client) MQTTHost() string {
	return c.region.MQTTHost()
}

// GetTasks lists the print-job records of the account, newest first as
// the cloud orders them. Pass a device serial in onlyDevice to limit
// the listing to one printer, or "" for all.
func (c *Client) GetTasks(ctx context.Context, onlyDevice string) ([]model.Task, error) {
	query := url.Values{
		"limit":    {taskListLimit},
		"deviceId": {onlyDevice},
	}

	var resp model.TasksResponse
	if err := c.do(ctx, http.MethodGet, "/v1/user-service/my/tasks", query, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return resp.Hits, nil
}

// GetProfile fetches the account profile of the logged-in user.
func (c *Client) GetProfile(ctx context.Context) (*model.Account, error) {
	var account model.Account
	if err := c.do(ctx, http.MethodGet, "/v1/user-service/my/profile", nil, nil, nil, &account); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &account, nil
}

// GetDevices lists the printers bound to the account.
func (c *Client) GetDevices(ctx context.Context) ([]model.Device, error) {
	var resp model.DevicesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/iot-service/api/user/bind", nil, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return resp.Devices, nil
}

// CameraURL requests a one-time streaming ticket for a device camera
// and assembles the bambu:// URL the vendor player understands.
func (c *Client) CameraURL(ctx context.Context, dev model.Device) (*url.URL, error) {
	var resp struct {
		TTCode  string `json:"ttcode"`
		AuthKey string `json:"authkey"`
		Passwd  string `json:"passwd"`
		Region  string `json:"region"`
	}
	body := map[string]string{"dev_id": dev.DevID}
	headers := map[string]string{"user-id": c.token.Username}
	if err := c.do(ctx, http.MethodPost, "/v1/iot-service/api/user/ttcode", nil, body, headers, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch camera ticket: %w", err)
	}

	u, err := url.Parse(fmt.Sprintf("bambu:///%s?authkey=%s&passwd=%s&region=%s",
		resp.TTCode, resp.AuthKey, resp.Passwd, resp.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to build camera URL: %w", err)
	}
	return u, nil
}

// do issues one request against the cloud and decodes the JSON reply
// into out. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.token.jwt)
	}
	req.Header.Set("X-Request-Id", uuid.New().String())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep enough of the body for a useful error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logging.Log(fmt.Sprintf("Cloud request %s %s failed with status %d", method, path, resp.StatusCode), slog.LevelError)
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
