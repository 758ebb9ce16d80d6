package client

import (
	"context"
	"strconv"
	"strings"
)

type IssueService struct {
	client *Client
}

func (c *Client) Issues() *IssueService {
	return &IssueService{client: c}
}

type Issue struct {
	Key       string `json:"key"`
	Rule      string `json:"rule"`
	Severity  string `json:"severity"`
	Component string `json:"component"`
	Line      int    `json:"line,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"creationDate,omitempty"`
}

type IssueQuery struct {
	ProjectKey string
	Severities []string
	Statuses   []string
	PageSize   int
}

func (i *IssueService) Search(ctx context.Context, query IssueQuery) ([]Issue, error) {
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	var out struct {
		Issues []Issue `json:"issues"`
	}
	req := i.client.rc.R().
		SetContext(ctx).
		SetQueryParam("ps", strconv.Itoa(pageSize)).
		SetResult(&out)
	if query.ProjectKey != "" {
		req.SetQueryParam("componentKeys", query.ProjectKey)
	}
	if len(query.Severities) > 0 {
		req.SetQueryParam("severities", strings.Join(query.Severities, ","))
	}
	if len(query.Statuses) > 0 {
		req.SetQueryParam("statuses", strings.Join(query.Statuses, ","))
	}
	resp, err := req.Get("api/issues/search")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out.Issues, nil
}
