package model

// Invoice is a billing record attached to completed service work.
// The client only lists and filters invoices; all mutation is server-side.
type Invoice struct {
	ID int `json:"id"`

	// Number is the human-facing invoice number, e.g. "INV-2024-0113".
	Number string `json:"number"`

	// Status is the invoice status code (paid, unpaid, overdue).
	Status string `json:"status"`

	// Amount is the formatted total, server-rendered.
	Amount string `json:"amount"`

	// ServiceName names the service the invoice bills for.
	ServiceName string `json:"service_name"`

	// IssuedDate is the issue date in YYYY-MM-DD form.
	IssuedDate string `json:"issued_date"`
}

// SearchFields returns the free-text searchable fields of an invoice.
func (i Invoice) SearchFields() []string {
	return []string{i.Number, i.ServiceName}
}

// StatusCode returns the invoice's status code for facet filtering.
func (i Invoice) StatusCode() string {
	return i.Status
}
