package cart

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/c360studio/tienditas/store"
)

// OrderMessage renders the deterministic order summary handed to the
// customer's messaging app. Customers see this text verbatim: line order
// and wording are a contract surface, locked by golden-file tests.
func OrderMessage(c *Cart, payment store.PaymentInfo, storeName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "¡Hola %s! 👋 Quisiera hacer el siguiente pedido:\n\n", storeName)
	for _, item := range c.Items() {
		lineTotal := item.Product.Price * float64(item.Quantity)
		fmt.Fprintf(&b, "- %s (x%d) - S/ %.2f\n", item.Product.Name, item.Quantity, lineTotal)
	}
	fmt.Fprintf(&b, "\n*Total a pagar: S/ %.2f*", c.Total())
	fmt.Fprintf(&b, "\n\nEl pago lo realizaré a nombre de *%s* al Yape/Plin: *%s*.", payment.Name, payment.Phone)
	b.WriteString("\n\n¡Muchas gracias! 😊")

	return b.String()
}

// WhatsAppLink builds the outbound deep link carrying message to the
// store's WhatsApp number. The number must be digits with country code.
// Spaces are percent-encoded, not "+": WhatsApp renders "+" literally.
func WhatsAppLink(whatsappNumber, message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + whatsappNumber + "?text=" + encoded
}
