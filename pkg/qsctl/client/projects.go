package client

import (
	"context"
	"fmt"
	"strconv"
)

type ProjectService struct {
	client *Client
}

func (c *Client) Projects() *ProjectService {
	return &ProjectService{client: c}
}

type Project struct {
	Key              string `json:"key"`
	Name             string `json:"name"`
	Visibility       string `json:"visibility,omitempty"`
	LastAnalysisDate string `json:"lastAnalysisDate,omitempty"`
}

type ProjectQuery struct {
	Query    string
	PageSize int
}

func (p *ProjectService) Search(ctx context.Context, query ProjectQuery) ([]Project, error) {
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	var out struct {
		Components []Project `json:"components"`
	}
	req := p.client.rc.R().
		SetContext(ctx).
		SetQueryParam("ps", strconv.Itoa(pageSize)).
		SetResult(&out)
	if query.Query != "" {
		req.SetQueryParam("q", query.Query)
	}
	resp, err := req.Get("api/projects/search")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out.Components, nil
}

func (p *ProjectService) Get(ctx context.Context, key string) (*Project, error) {
	projects, err := p.Search(ctx, ProjectQuery{Query: key})
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Key == key {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project not found: %s", key)
}
