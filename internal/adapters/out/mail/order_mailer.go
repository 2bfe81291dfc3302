// internal/adapters/out/mail/order_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	orderdom "threadline/internal/domain/order"
)

// EmailClient は実際のメール送信クライアント（SMTP / SendGrid / SES など）を
// 抽象化した下位レベルのインターフェースです。
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// OrderMailer sends the order confirmation after a successful commit.
// It satisfies usecase.OrderMailer.
type OrderMailer struct {
	client      EmailClient
	fromAddress string
}

func NewOrderMailer(client EmailClient, fromAddress string) *OrderMailer {
	return &OrderMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
	}
}

func (m *OrderMailer) SendOrderConfirmation(ctx context.Context, to string, ord orderdom.Order) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("mail: confirmation requires a recipient")
	}

	subject := fmt.Sprintf("Your Threadline order %s", ord.ID)
	return m.client.Send(ctx, m.fromAddress, to, subject, buildOrderBody(ord))
}

func buildOrderBody(ord orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order!\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n", ord.ID)
	fmt.Fprintf(&b, "Placed at: %s\n\n", ord.CreatedAt.Format("2006-01-02 15:04 MST"))

	for _, it := range ord.Items {
		name := it.ProductID
		if key := strings.TrimSpace(it.VariantKey); key != "" {
			name = name + " (" + key + ")"
		}
		fmt.Fprintf(&b, "  %s x%d  %d\n", name, it.Quantity, it.UnitPrice*it.Quantity)
	}

	fmt.Fprintf(&b, "\nSubtotal: %d\n", ord.Subtotal)
	if code := strings.TrimSpace(ord.DiscountCode); code != "" {
		fmt.Fprintf(&b, "Discount: %s\n", code)
	}
	fmt.Fprintf(&b, "Shipping: %d\n", ord.ShippingCharge)
	fmt.Fprintf(&b, "Total: %d\n", ord.Total)

	return b.String()
}
