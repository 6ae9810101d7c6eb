package client

import (
	"context"
	"fmt"
	"net/url"

	"pgstay/pkg/model"
)

type BillClient struct {
	httpClient *HttpClient
}

func NewBillClient(httpClient *HttpClient) *BillClient {
	return &BillClient{httpClient: httpClient}
}

func (c *BillClient) Create(ctx context.Context, input model.CreateBillInput) (*model.BillDetails, error) {
	return decodeData[model.BillDetails](c.httpClient.POST(ctx, "/api/v1/bills", input))
}

func (c *BillClient) Get(ctx context.Context, id string) (*model.BillDetails, error) {
	return decodeData[model.BillDetails](c.httpClient.GET(ctx, "/api/v1/bills/"+url.PathEscape(id)))
}

func (c *BillClient) List(ctx context.Context, filter model.BillFilter, limit int, offset int64) ([]model.Bill, int64, error) {
	q := url.Values{}
	if filter.TenantID != "" {
		q.Set("tenant_id", filter.TenantID)
	}
	if filter.BillingMonth != "" {
		q.Set("month", filter.BillingMonth)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return getPage[model.Bill](ctx, c.httpClient, "/api/v1/bills?"+q.Encode())
}

func (c *BillClient) Send(ctx context.Context, id string) (*model.Bill, error) {
	return decodeData[model.Bill](c.httpClient.POST(ctx, "/api/v1/bills/"+url.PathEscape(id)+"/send", nil))
}

func (c *BillClient) MarkOverdue(ctx context.Context, id string) (*model.Bill, error) {
	return decodeData[model.Bill](c.httpClient.POST(ctx, "/api/v1/bills/"+url.PathEscape(id)+"/overdue", nil))
}
