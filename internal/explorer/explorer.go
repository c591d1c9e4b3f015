// Package explorer fetches account transaction lists from an Etherscan-style
// block explorer API.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://api.etherscan.io/api"
	DefaultPageSize = 5

	defaultTimeout = 10 * time.Second
	fallbackMsg    = "Failed to fetch transactions"
)

// Options parameterise the explorer client
type Options struct {
	BaseURL  string
	APIKey   string
	ChainID  int64 // sent as chainid when set, required by V2 endpoints
	PageSize int
	Timeout  time.Duration
}

// Transaction is one txlist entry as the explorer reports it. Numbers are
// decimal strings.
type Transaction struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	BlockNumber string `json:"blockNumber"`
	GasUsed     string `json:"gasUsed"`
	IsError     string `json:"isError"`
}

// APIError is returned when the explorer answers with a failure status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("explorer api error (%d): %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Client queries the explorer
type Client struct {
	opts    Options
	client  *http.Client
	baseURL string
}

// NewClient constructs an explorer client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type txListResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// FetchTransactions returns the most recent transactions of address, newest first
func (c *Client) FetchTransactions(ctx context.Context, address string) ([]Transaction, error) {
	endpoint, err := c.txListURL(address)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read explorer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(payload))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var body txListResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode explorer response: %w", err)
	}

	if body.Status != "1" {
		msg := strings.TrimSpace(body.Message)
		if msg == "" {
			msg = fallbackMsg
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var txs []Transaction
	if err := json.Unmarshal(body.Result, &txs); err != nil {
		return nil, fmt.Errorf("decode explorer result: %w", err)
	}
	return txs, nil
}

func (c *Client) txListURL(address string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid explorer url: %w", err)
	}

	q := u.Query()
	if c.opts.ChainID > 0 {
		q.Set("chainid", strconv.FormatInt(c.opts.ChainID, 10))
	}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(c.opts.PageSize))
	q.Set("sort", "desc")
	q.Set("apikey", c.opts.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
