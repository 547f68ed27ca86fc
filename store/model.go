// Package store defines the store configuration model and the repository
// that loads and saves the whole collection as one document.
package store

// TemplateID selects which page renderer a store uses.
type TemplateID string

// Known template variants. Unrecognized values normalize to classic.
const (
	TemplateClassic TemplateID = "classic"
	TemplateModern  TemplateID = "modern"
)

// Valid reports whether t names a known template variant.
func (t TemplateID) Valid() bool {
	switch t {
	case TemplateClassic, TemplateModern:
		return true
	}
	return false
}

// Canonical theme slot names. The theme map is open-ended; these are the
// slots every seeded store carries and the palette extractor fills.
var ThemeSlots = []string{
	"primary",
	"secondary",
	"background",
	"text",
	"cardBackground",
	"buttonText",
}

// Collection maps store identifiers to their records. Identifiers are
// URL-safe path segments.
type Collection map[string]*Record

// Record is the full configuration of one store.
type Record struct {
	Name            string            `json:"name"`
	TemplateID      TemplateID        `json:"templateId"`
	SectionTitle    string            `json:"sectionTitle"`
	HeroBanner      HeroBanner        `json:"heroBanner"`
	Products        []Product         `json:"products"`
	PaymentInfo     PaymentInfo       `json:"paymentInfo"`
	Theme           map[string]string `json:"theme"`
	ChatInstruction string            `json:"chatInstruction"`
}

// HeroBanner is the storefront's top banner.
type HeroBanner struct {
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// PaymentInfo holds the manual-payment contact details. WhatsApp must be
// digits with country code for the deep link to resolve; this is a contract
// with the admin, not validated here.
type PaymentInfo struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
}

// Product is one sellable item. IDs are unique within a store and never
// reused after deletion.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

// Clone returns a deep copy of the collection. Mutating the copy never
// affects the original; the admin draft discipline depends on this.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for id, rec := range c {
		out[id] = rec.Clone()
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Products = make([]Product, len(r.Products))
	copy(out.Products, r.Products)
	out.Theme = make(map[string]string, len(r.Theme))
	for k, v := range r.Theme {
		out.Theme[k] = v
	}
	return &out
}

// Normalize backfills fields absent from prior-schema documents so loading
// an old document never crashes a renderer. Missing or unknown templateId
// falls back to classic; nil containers become empty ones.
func (c Collection) Normalize() {
	for _, rec := range c {
		rec.Normalize()
	}
}

// Normalize backfills absent fields on a single record.
func (r *Record) Normalize() {
	if !r.TemplateID.Valid() {
		r.TemplateID = TemplateClassic
	}
	if r.Products == nil {
		r.Products = []Product{}
	}
	if r.Theme == nil {
		r.Theme = map[string]string{}
	}
}

// NextProductID returns an id strictly greater than every product id the
// record currently holds. Per-store monotonic assignment keeps ids unique
// within the store even under rapid successive creation.
func (r *Record) NextProductID() int64 {
	var max int64
	for _, p := range r.Products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
