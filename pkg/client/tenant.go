package client

import (
	"context"
	"fmt"
	"net/url"

	"pgstay/pkg/model"
)

type TenantClient struct {
	httpClient *HttpClient
}

func NewTenantClient(httpClient *HttpClient) *TenantClient {
	return &TenantClient{httpClient: httpClient}
}

func (c *TenantClient) List(ctx context.Context, status model.TenantStatus, limit int, offset int64) ([]model.Tenant, int64, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return getPage[model.Tenant](ctx, c.httpClient, "/api/v1/tenants?"+q.Encode())
}

// ListAll walks every page of tenants in status.
func (c *TenantClient) ListAll(ctx context.Context, status model.TenantStatus, pageSize int) ([]model.Tenant, error) {
	var all []model.Tenant
	for offset := int64(0); ; {
		tenants, total, err := c.List(ctx, status, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, tenants...)
		offset += int64(len(tenants))
		if len(tenants) == 0 || offset >= total {
			return all, nil
		}
	}
}
