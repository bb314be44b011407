package domain

// PaymentStatusPaid is the only provider payment status that settles an order.
const PaymentStatusPaid = "paid"

// ChargeRequest asks the provider to turn a chargeable source into a payment.
type ChargeRequest struct {
	SourceID    string
	Amount      int64 // centavos
	Currency    string
	Description string
	Metadata    EventMetadata
}

// Payment is the provider's payment resource, reduced to what settlement reads.
type Payment struct {
	ID     string
	Status string
}

// IsPaid reports whether the payment settled.
func (p *Payment) IsPaid() bool {
	return p != nil && p.Status == PaymentStatusPaid
}
