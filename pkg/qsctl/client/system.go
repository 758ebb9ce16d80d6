package client

import "context"

// ServerStatus is the server's self-reported identity and health.
type ServerStatus struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

func (c *Client) ServerStatus(ctx context.Context) (*ServerStatus, error) {
	var status ServerStatus
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&status).
		Get("api/system/status")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &status, nil
}
