package client

import (
	"context"
	"errors"
)

type QualityGateService struct {
	client *Client
}

func (c *Client) QualityGates() *QualityGateService {
	return &QualityGateService{client: c}
}

type QualityGateCondition struct {
	Metric         string `json:"metricKey"`
	Status         string `json:"status"`
	ActualValue    string `json:"actualValue,omitempty"`
	ErrorThreshold string `json:"errorThreshold,omitempty"`
	Comparator     string `json:"comparator,omitempty"`
}

type QualityGateStatus struct {
	Status     string                 `json:"status"`
	Conditions []QualityGateCondition `json:"conditions,omitempty"`
}

// ProjectStatus fetches the quality gate verdict for one project.
func (q *QualityGateService) ProjectStatus(ctx context.Context, projectKey string) (*QualityGateStatus, error) {
	if projectKey == "" {
		return nil, errors.New("project key is required")
	}
	var out struct {
		ProjectStatus QualityGateStatus `json:"projectStatus"`
	}
	resp, err := q.client.rc.R().
		SetContext(ctx).
		SetQueryParam("projectKey", projectKey).
		SetResult(&out).
		Get("api/qualitygates/project_status")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out.ProjectStatus, nil
}
