package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client calls the bhola JSON API.
type Client struct {
	http.Client
	Addr string
}

type status struct {
	OK bool `json:"ok"`
}

type processRequest struct {
	Text string `json:"text"`
}

type processResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) Healthz() (bool, error) {
	req, err := http.NewRequest(http.MethodGet, c.Addr+"/healthz", nil)
	if err != nil {
		return false, err
	}

	var s status
	if err := c.do(req, &s); err != nil {
		return false, err
	}

	return s.OK, nil
}

// Process returns the processed form of text.
func (c *Client) Process(text string) (string, error) {
	payload, err := json.Marshal(processRequest{Text: text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.Addr+"/process", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	var out processResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}

	return out.Result, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Detail != "" {
			return fmt.Errorf("%s: %d %s", req.URL.Path, resp.StatusCode, e.Detail)
		}

		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}
