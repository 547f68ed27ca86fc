package admin

import (
	"errors"
	"fmt"

	"github.com/c360studio/tienditas/store"
)

// Editor errors surfaced to the admin console as inline validation
// messages.
var (
	ErrStoreNotFound  = errors.New("store not found")
	ErrStoreExists    = errors.New("store identifier already in use")
	ErrInvalidStoreID = errors.New("store identifier is empty")
)

// PathError reports a nested-path mutation that could not be applied. The
// draft is left untouched when one is returned.
type PathError struct {
	Path   Path
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: %s", e.Path.String(), e.Reason)
}

func pathErr(p Path, format string, args ...any) error {
	return &PathError{Path: p, Reason: fmt.Sprintf(format, args...)}
}

// SetField applies value at path on a deep clone of draft and returns the
// clone. The input draft is never mutated, so callers can hold old
// snapshots for change detection. Every intermediate step must resolve to
// an existing container; only the final step may introduce a new key, and
// only inside the open-ended theme map.
func SetField(draft store.Collection, path Path, value any) (store.Collection, error) {
	if len(path) < 2 {
		return nil, pathErr(path, "need a store identifier and at least one field")
	}
	if path[0].IsIndex() {
		return nil, pathErr(path, "first step must be a store identifier")
	}

	next := draft.Clone()
	rec, ok := next[path[0].KeyValue()]
	if !ok {
		return nil, pathErr(path, "unknown store %q", path[0].KeyValue())
	}

	if err := setRecordField(rec, path, path[1:], value); err != nil {
		return nil, err
	}
	return next, nil
}

// setRecordField dispatches the first step under a store record. rest is
// the remaining path beginning with that step; full is kept for error text.
func setRecordField(rec *store.Record, full Path, rest Path, value any) error {
	step := rest[0]
	if step.IsIndex() {
		return pathErr(full, "store fields are addressed by name, not position")
	}

	switch step.KeyValue() {
	case "name":
		return assignString(&rec.Name, full, value)
	case "sectionTitle":
		return assignString(&rec.SectionTitle, full, value)
	case "chatInstruction":
		return assignString(&rec.ChatInstruction, full, value)
	case "templateId":
		return assignTemplateID(&rec.TemplateID, full, value)
	case "heroBanner":
		return setBannerField(&rec.HeroBanner, full, rest[1:], value)
	case "paymentInfo":
		return setPaymentField(&rec.PaymentInfo, full, rest[1:], value)
	case "theme":
		return setThemeField(rec, full, rest[1:], value)
	case "products":
		return setProductsField(rec, full, rest[1:], value)
	default:
		return pathErr(full, "unknown store field %q", step.KeyValue())
	}
}

func setBannerField(banner *store.HeroBanner, full Path, rest Path, value any) error {
	if len(rest) != 1 || rest[0].IsIndex() {
		return pathErr(full, "heroBanner fields are addressed by one name")
	}
	switch rest[0].KeyValue() {
	case "imageUrl":
		return assignString(&banner.ImageURL, full, value)
	case "title":
		return assignString(&banner.Title, full, value)
	case "subtitle":
		return assignString(&banner.Subtitle, full, value)
	default:
		return pathErr(full, "unknown heroBanner field %q", rest[0].KeyValue())
	}
}

func setPaymentField(payment *store.PaymentInfo, full Path, rest Path, value any) error {
	if len(rest) != 1 || rest[0].IsIndex() {
		return pathErr(full, "paymentInfo fields are addressed by one name")
	}
	switch rest[0].KeyValue() {
	case "phone":
		return assignString(&payment.Phone, full, value)
	case "name":
		return assignString(&payment.Name, full, value)
	case "whatsapp":
		return assignString(&payment.WhatsApp, full, value)
	default:
		return pathErr(full, "unknown paymentInfo field %q", rest[0].KeyValue())
	}
}

// setThemeField handles both whole-palette replacement (path ends at
// "theme") and single-slot writes. Slot names not present yet are created:
// the theme map is the one open-ended container in the tree.
func setThemeField(rec *store.Record, full Path, rest Path, value any) error {
	if len(rest) == 0 {
		palette, ok := value.(map[string]string)
		if !ok {
			return pathErr(full, "theme replacement needs a string map, got %T", value)
		}
		rec.Theme = make(map[string]string, len(palette))
		for k, v := range palette {
			rec.Theme[k] = v
		}
		return nil
	}
	if len(rest) != 1 || rest[0].IsIndex() {
		return pathErr(full, "theme slots are addressed by one name")
	}
	color, ok := value.(string)
	if !ok {
		return pathErr(full, "theme slot needs a string, got %T", value)
	}
	if rec.Theme == nil {
		rec.Theme = map[string]string{}
	}
	rec.Theme[rest[0].KeyValue()] = color
	return nil
}

// setProductsField handles whole-list replacement, whole-product
// replacement at a position, and single product fields.
func setProductsField(rec *store.Record, full Path, rest Path, value any) error {
	if len(rest) == 0 {
		list, ok := value.([]store.Product)
		if !ok {
			return pathErr(full, "product list replacement needs []store.Product, got %T", value)
		}
		rec.Products = make([]store.Product, len(list))
		copy(rec.Products, list)
		return nil
	}

	if !rest[0].IsIndex() {
		return pathErr(full, "products are addressed by position")
	}
	idx := rest[0].IndexValue()
	if idx < 0 || idx >= len(rec.Products) {
		return pathErr(full, "product position %d out of range (have %d)", idx, len(rec.Products))
	}

	if len(rest) == 1 {
		p, ok := value.(store.Product)
		if !ok {
			return pathErr(full, "product replacement needs store.Product, got %T", value)
		}
		// Identity is positional here: keep the existing id.
		p.ID = rec.Products[idx].ID
		rec.Products[idx] = p
		return nil
	}

	if len(rest) != 2 || rest[1].IsIndex() {
		return pathErr(full, "product fields are addressed by one name")
	}
	prod := &rec.Products[idx]
	switch rest[1].KeyValue() {
	case "name":
		return assignString(&prod.Name, full, value)
	case "description":
		return assignString(&prod.Description, full, value)
	case "image":
		return assignString(&prod.Image, full, value)
	case "price":
		return assignPrice(&prod.Price, full, value)
	default:
		return pathErr(full, "unknown product field %q", rest[1].KeyValue())
	}
}

func assignString(dst *string, full Path, value any) error {
	s, ok := value.(string)
	if !ok {
		return pathErr(full, "needs a string, got %T", value)
	}
	*dst = s
	return nil
}

func assignPrice(dst *float64, full Path, value any) error {
	var price float64
	switch v := value.(type) {
	case float64:
		price = v
	case int:
		price = float64(v)
	default:
		return pathErr(full, "needs a number, got %T", value)
	}
	if price < 0 {
		return pathErr(full, "price must not be negative")
	}
	*dst = price
	return nil
}

func assignTemplateID(dst *store.TemplateID, full Path, value any) error {
	var id store.TemplateID
	switch v := value.(type) {
	case store.TemplateID:
		id = v
	case string:
		id = store.TemplateID(v)
	default:
		return pathErr(full, "needs a template identifier, got %T", value)
	}
	if !id.Valid() {
		return pathErr(full, "unknown template %q", string(id))
	}
	*dst = id
	return nil
}
