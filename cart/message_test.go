package cart

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/c360studio/tienditas/store"
)

func orderedCart() *Cart {
	c := New()
	c.AddItem(cacao)
	c.AddItem(cacao)
	c.AddItem(barra)
	c.AddItem(barra)
	c.AddItem(barra)
	return c
}

func TestOrderMessageGolden(t *testing.T) {
	payment := store.PaymentInfo{
		Name:  "Maria Rodriguez",
		Phone: "987654321",
	}

	message := OrderMessage(orderedCart(), payment, "Sacha Cacao")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "order_message", []byte(message))
}

func TestOrderMessageRoundsPerLineAtFormatTime(t *testing.T) {
	c := New()
	c.AddItem(store.Product{ID: 9, Name: "Trufa", Price: 1.005})
	c.AddItem(store.Product{ID: 9, Name: "Trufa", Price: 1.005})

	message := OrderMessage(c, store.PaymentInfo{Name: "Ana", Phone: "1"}, "Trufas")

	// 2 × 1.005 accumulates unrounded; both lines format to two decimals.
	assert.Contains(t, message, "(x2) - S/ 2.01")
	assert.Contains(t, message, "*Total a pagar: S/ 2.01*")
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("51987654321", "¡Hola! un pedido")

	assert.True(t, strings.HasPrefix(link, "https://wa.me/51987654321?text="), link)
	// Spaces must be percent-encoded, never "+".
	assert.NotContains(t, link, "+")
	assert.Contains(t, link, "%20")
}
