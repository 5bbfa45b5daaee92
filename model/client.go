package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Client is the programmatic interface to the provider API.
type Client struct {
	address    string
	apiKey     string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient creates a client to the provider API at the given address,
// authenticating with the given bearer token.
func NewClient(address, apiKey string) *Client {
	return &Client{
		address:    strings.TrimRight(address, "/"),
		apiKey:     apiKey,
		headers:    make(map[string]string),
		httpClient: &http.Client{},
	}
}

// NewClientWithHeaders creates a client with additional custom headers.
func NewClientWithHeaders(address, apiKey string, headers map[string]string) *Client {
	return &Client{
		address:    strings.TrimRight(address, "/"),
		apiKey:     apiKey,
		headers:    headers,
		httpClient: &http.Client{},
	}
}

// closeBody ensures the Body of the given response is properly closed.
func closeBody(r *http.Response) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}
}

func (c *Client) buildURL(urlPath string, args ...interface{}) string {
	return fmt.Sprintf("%s%s", c.address, fmt.Sprintf(urlPath, args...))
}

func (c *Client) newRequest(method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (c *Client) doGet(u string) (*http.Response, error) {
	req, err := c.newRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func (c *Client) doPost(u string, request interface{}) (*http.Response, error) {
	return c.doWithBody(http.MethodPost, u, request)
}

func (c *Client) doPut(u string, request interface{}) (*http.Response, error) {
	return c.doWithBody(http.MethodPut, u, request)
}

func (c *Client) doDelete(u string) (*http.Response, error) {
	req, err := c.newRequest(http.MethodDelete, u, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func (c *Client) doWithBody(method, u string, request interface{}) (*http.Response, error) {
	var body io.Reader
	if request != nil {
		requestBytes, err := json.Marshal(request)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request body")
		}
		body = bytes.NewReader(requestBytes)
	}

	req, err := c.newRequest(method, u, body)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// errFromResponse builds a status-carrying error from a non-2xx response.
func errFromResponse(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	message := strings.TrimSpace(string(bodyBytes))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return NewErrWithStatus(resp.StatusCode, errors.Errorf("received status code %d: %s", resp.StatusCode, message))
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ListPostgres returns the postgres instances visible to the API key.
func (c *Client) ListPostgres(request *ListPostgresRequest) ([]*PostgresListEntry, error) {
	u, err := url.Parse(c.buildURL("/postgres"))
	if err != nil {
		return nil, err
	}
	request.ApplyToURL(u)

	resp, err := c.doGet(u.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list postgres instances")
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return nil, errFromResponse(resp)
	}

	return NewPostgresListFromReader(resp.Body)
}

// GetSinglePostgres lists the available postgres instances and returns the
// only one. It fails loudly when zero or more than one candidate is found
// rather than silently picking the first.
func (c *Client) GetSinglePostgres() (*Postgres, error) {
	entries, err := c.ListPostgres(&ListPostgresRequest{IncludeReplicas: true, Limit: 20})
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, errors.New("no postgres instances found")
	}
	if len(entries) > 1 {
		ids := make([]string, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, entry.Postgres.ID)
		}
		return nil, errors.Errorf("expected exactly one postgres instance, found %d: %s", len(entries), strings.Join(ids, ", "))
	}

	return entries[0].Postgres, nil
}

// GetPostgres fetches the postgres instance with the given id.
func (c *Client) GetPostgres(postgresID string) (*Postgres, error) {
	resp, err := c.doGet(c.buildURL("/postgres/%s", postgresID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get postgres instance")
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return nil, errFromResponse(resp)
	}

	return NewPostgresFromReader(resp.Body)
}

// GetPostgresConnectionInfo fetches the credentials bundle of the postgres
// instance with the given id.
func (c *Client) GetPostgresConnectionInfo(postgresID string) (*ConnectionInfo, error) {
	resp, err := c.doGet(c.buildURL("/postgres/%s/connection-info", postgresID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get postgres connection info")
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return nil, errFromResponse(resp)
	}

	return NewConnectionInfoFromReader(resp.Body)
}

// CreatePostgres provisions a new postgres instance.
func (c *Client) CreatePostgres(request *CreatePostgresRequest) (*Postgres, error) {
	resp, err := c.doPost(c.buildURL("/postgres"), request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create postgres instance")
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return nil, errFromResponse(resp)
	}

	return NewPostgresFromReader(resp.Body)
}

// DeletePostgres destroys the postgres instance with the given id.
func (c *Client) DeletePostgres(postgresID string) error {
	resp, err := c.doDelete(c.buildURL("/postgres/%s", postgresID))
	if err != nil {
		return errors.Wrap(err, "failed to delete postgres instance")
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return errFromResponse(resp)
	}

	return nil
}

// UpdateServiceEnvVar sets a single environment variable on the hosted
// service. The provider applies each key independently; there is no
// transaction across keys.
func (c *Client) UpdateServiceEnvVar(serviceID, key, value string) error {
	resp, err := c.doPut(c.buildURL("/services/%s/env-vars/%s", serviceID, key), &UpdateEnvVarRequest{Value: value})
	if err != nil {
		return errors.Wrapf(err, "failed to update env var %s", key)
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return errFromResponse(resp)
	}

	return nil
}

// RestartService triggers a restart of the hosted service.
func (c *Client) RestartService(serviceID string) error {
	resp, err := c.doPost(c.buildURL("/services/%s/restart", serviceID), nil)
	if err != nil {
		return errors.Wrap(err, "failed to restart service")
	}
	defer closeBody(resp)

	if !isSuccess(resp) {
		return errFromResponse(resp)
	}

	return nil
}
