package api

import (
	"context"
	"fmt"

	"github.com/pestguard/fieldops/internal/model"
)

// ListInvoices retrieves the customer's invoices.
func (c *Client) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := c.Get(ctx, "/customer/invoices", &invoices); err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}
