package web

import (
	"encoding/json"
	"net/http"

	"github.com/c360studio/tienditas/cart"
	"github.com/c360studio/tienditas/render"
)

// CartLine is one requested line in an order.
type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CartMessageRequest is the request body for POST /api/cart/message.
type CartMessageRequest struct {
	StoreID string     `json:"storeId"`
	Items   []CartLine `json:"items"`
}

// CartMessageResponse carries the composed order and its WhatsApp deep link.
type CartMessageResponse struct {
	Message string  `json:"message"`
	Link    string  `json:"link"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
}

// handleCartMessage composes the WhatsApp order message for a cart. The cart
// itself lives in the browser; the server owns pricing, so lines reference
// products by id and quantities only.
func (s *Server) handleCartMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req CartMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		http.Error(w, "cart is empty", http.StatusBadRequest)
		return
	}

	_, rec, ok := render.ResolveStore(s.editor.Committed(), req.StoreID)
	if !ok {
		http.Error(w, "store not found", http.StatusNotFound)
		return
	}

	byID := make(map[int64]int, len(rec.Products))
	for i, p := range rec.Products {
		byID[p.ID] = i
	}

	c := cart.New()
	for _, line := range req.Items {
		idx, ok := byID[line.ProductID]
		if !ok {
			http.Error(w, "unknown product in cart", http.StatusBadRequest)
			return
		}
		c.AddItem(rec.Products[idx])
		c.UpdateQuantity(line.ProductID, line.Quantity)
	}
	if c.Count() == 0 {
		http.Error(w, "cart is empty", http.StatusBadRequest)
		return
	}

	message := cart.OrderMessage(c, rec.PaymentInfo, rec.Name)
	writeJSON(w, http.StatusOK, CartMessageResponse{
		Message: message,
		Link:    cart.WhatsAppLink(rec.PaymentInfo.WhatsApp, message),
		Total:   c.Total(),
		Count:   c.Count(),
	})
}
