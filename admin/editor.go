package admin

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/c360studio/tienditas/store"
)

// notificationTTL is how long a save confirmation stays visible.
const notificationTTL = 3 * time.Second

// Editor maintains the editable draft of the store collection. Edits only
// touch the draft; the committed baseline, which the public storefront
// renders, changes exclusively through Commit. Every mutation swaps in a
// freshly cloned draft, so snapshots handed out earlier stay coherent.
type Editor struct {
	repo   *store.Repository
	logger *slog.Logger

	mu        sync.Mutex
	baseline  store.Collection
	draft     store.Collection
	selected  string
	notice    string
	noticeTTL time.Duration
	noticeGen int
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithEditorLogger sets the logger.
func WithEditorLogger(logger *slog.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithNotificationTTL overrides how long save confirmations linger.
func WithNotificationTTL(d time.Duration) EditorOption {
	return func(e *Editor) {
		e.noticeTTL = d
	}
}

// NewEditor loads the committed collection and starts a draft over it. The
// default selection is the seeded home store when present, else the
// lexically first identifier.
func NewEditor(ctx context.Context, repo *store.Repository, opts ...EditorOption) *Editor {
	e := &Editor{
		repo:      repo,
		logger:    slog.Default(),
		noticeTTL: notificationTTL,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.baseline = repo.Load(ctx)
	e.draft = e.baseline.Clone()
	e.selected = defaultSelection(e.draft)
	return e
}

func defaultSelection(c store.Collection) string {
	if _, ok := c[store.DefaultStoreID]; ok {
		return store.DefaultStoreID
	}
	first := ""
	for id := range c {
		if first == "" || id < first {
			first = id
		}
	}
	return first
}

// Draft returns the current draft snapshot. The snapshot is never mutated
// in place; it is safe to read without holding the editor.
func (e *Editor) Draft() store.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Committed returns the last committed collection snapshot. This is what
// the public renderer reads; uncommitted edits are never visible here.
func (e *Editor) Committed() store.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseline
}

// SelectStore makes id the active store for editing and returns its draft
// record. Switching never discards edits to other stores: all edits live
// in the one draft.
func (e *Editor) SelectStore(id string) (*store.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.draft[id]
	if !ok {
		return nil, ErrStoreNotFound
	}
	e.selected = id
	return rec, nil
}

// Selected returns the active store identifier.
func (e *Editor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// SetField mutates the draft at the given path. On a path error the draft
// is unchanged.
func (e *Editor) SetField(path Path, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := SetField(e.draft, path, value)
	if err != nil {
		return err
	}
	e.draft = next
	return nil
}

// UpsertProduct replaces the product matching p.ID in place; when the id
// is zero or unknown it assigns a fresh id and appends. Returns the
// stored product, id populated.
func (e *Editor) UpsertProduct(storeID string, p store.Product) (store.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.draft[storeID]; !ok {
		return store.Product{}, ErrStoreNotFound
	}

	next := e.draft.Clone()
	target := next[storeID]

	if p.ID != 0 {
		for i := range target.Products {
			if target.Products[i].ID == p.ID {
				target.Products[i] = p
				e.draft = next
				return p, nil
			}
		}
	}

	p.ID = target.NextProductID()
	target.Products = append(target.Products, p)
	e.draft = next
	return p, nil
}

// DeleteProduct removes the matching product from the draft. An unknown
// product id is a no-op, not an error.
func (e *Editor) DeleteProduct(storeID string, productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.draft[storeID]; !ok {
		return ErrStoreNotFound
	}

	next := e.draft.Clone()
	target := next[storeID]
	kept := target.Products[:0]
	for _, p := range target.Products {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	target.Products = kept
	e.draft = next
	return nil
}

// CreateStore inserts a new record under id. The identifier must be
// non-empty and unused; on a validation error the draft is unchanged.
// Required fields absent from cfg are backfilled so the record renders
// completely from its first commit.
func (e *Editor) CreateStore(id string, cfg *store.Record) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidStoreID
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.draft[id]; exists {
		return ErrStoreExists
	}

	rec := cfg.Clone()
	if rec == nil {
		rec = &store.Record{}
	}
	backfillNewStore(rec, id)

	next := e.draft.Clone()
	next[id] = rec
	e.draft = next
	if e.selected == "" {
		e.selected = id
	}
	return nil
}

// Commit persists the whole draft and makes it the new baseline, then
// raises a transient save confirmation.
func (e *Editor) Commit(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.repo.Save(ctx, e.draft)
	e.baseline = e.draft.Clone()

	name := ""
	if rec, ok := e.draft[e.selected]; ok {
		name = rec.Name
	}
	e.setNotice(`Cambios para "` + name + `" guardados correctamente.`)
	e.logger.Info("Committed store collection", "stores", len(e.draft), "selected", e.selected)
}

// Notification returns the current transient confirmation, or "".
func (e *Editor) Notification() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notice
}

// setNotice must be called with e.mu held. The generation counter keeps a
// stale timer from clearing a newer notice.
func (e *Editor) setNotice(msg string) {
	e.notice = msg
	e.noticeGen++
	gen := e.noticeGen
	time.AfterFunc(e.noticeTTL, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.noticeGen == gen {
			e.notice = ""
		}
	})
}

// backfillNewStore fills the fields a complete record needs, using the
// store's own name in the copy so a fresh shop is presentable before its
// first real edit.
func backfillNewStore(rec *store.Record, id string) {
	if rec.Name == "" {
		rec.Name = id
	}
	if rec.SectionTitle == "" {
		rec.SectionTitle = "Nuestros Productos"
	}
	if rec.HeroBanner.Title == "" {
		rec.HeroBanner.Title = rec.Name
	}
	if rec.HeroBanner.Subtitle == "" {
		rec.HeroBanner.Subtitle = "Bienvenido a nuestra tienda."
	}
	if rec.ChatInstruction == "" {
		rec.ChatInstruction = "Eres un asistente amigable de " + rec.Name +
			", experto en los productos de la tienda. Responde con calidez y precisión."
	}
	if len(rec.Theme) == 0 {
		rec.Theme = map[string]string{
			"primary":        "#333333",
			"secondary":      "#DDDDDD",
			"background":     "#F5F5F5",
			"text":           "#222222",
			"cardBackground": "#FFFFFF",
			"buttonText":     "#FFFFFF",
		}
	}
	rec.Normalize()
}

// NewProductTemplate is the placeholder handed to the admin console when
// adding a product.
func NewProductTemplate() store.Product {
	return store.Product{
		Name:        "Nuevo Producto",
		Description: "Descripción increíble...",
		Price:       0,
		Image:       "https://via.placeholder.com/300x220.png?text=Imagen",
	}
}
