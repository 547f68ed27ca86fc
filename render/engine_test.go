package render

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tienditas/store"
)

func testRecord(id store.TemplateID) *store.Record {
	return &store.Record{
		Name:         "Sacha Cacao",
		TemplateID:   id,
		SectionTitle: "Nuestros Productos",
		HeroBanner:   store.HeroBanner{Title: "Bienvenido", Subtitle: "Cacao del valle"},
		Products: []store.Product{
			{ID: 1, Name: "Cacao en polvo", Description: "Puro", Price: 15},
		},
		PaymentInfo: store.PaymentInfo{Name: "Maria", Phone: "999", WhatsApp: "51999"},
		Theme:       map[string]string{"primary": "#4a2c2a"},
	}
}

func TestRenderDispatchesOnTemplate(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	var classic, modern bytes.Buffer
	require.NoError(t, engine.Render(&classic, "sachacacao", testRecord(store.TemplateClassic)))
	require.NoError(t, engine.Render(&modern, "sachacacao", testRecord(store.TemplateModern)))

	assert.NotEqual(t, classic.String(), modern.String())
	for _, page := range []string{classic.String(), modern.String()} {
		assert.Contains(t, page, "Sacha Cacao")
		assert.Contains(t, page, "Cacao en polvo")
		assert.Contains(t, page, "S/ 15.00")
		assert.Contains(t, page, "--theme-primary: #4a2c2a;")
		assert.Contains(t, page, `data-chat-endpoint="/api/chat/sachacacao"`)
	}
}

func TestRenderUnknownTemplateFallsBackToClassic(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	var unknown, classic bytes.Buffer
	require.NoError(t, engine.Render(&unknown, "s", testRecord(store.TemplateID("neon"))))
	require.NoError(t, engine.Render(&classic, "s", testRecord(store.TemplateClassic)))

	assert.Equal(t, classic.String(), unknown.String())
}

func TestRenderNotFound(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.RenderNotFound(&buf, "nadie"))
	assert.Contains(t, buf.String(), "nadie")
}

func TestRenderEscapesUserContent(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	rec := testRecord(store.TemplateClassic)
	rec.Name = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, "s", rec))
	assert.False(t, strings.Contains(buf.String(), "<script>alert"))
}

func TestResolveStore(t *testing.T) {
	collection := store.Collection{
		store.DefaultStoreID: testRecord(store.TemplateClassic),
		"otra":               testRecord(store.TemplateModern),
	}

	id, rec, ok := ResolveStore(collection, "")
	assert.True(t, ok)
	assert.Equal(t, store.DefaultStoreID, id)
	assert.NotNil(t, rec)

	id, _, ok = ResolveStore(collection, "otra")
	assert.True(t, ok)
	assert.Equal(t, "otra", id)

	_, _, ok = ResolveStore(collection, "nadie")
	assert.False(t, ok)
}

func TestLoadFromKeepsPreviousSetOnMissingTemplate(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	// A directory without the full variant set must not replace the
	// working one.
	dir := t.TempDir()
	err = engine.loadFrom(writeTemplateDir(t, dir, map[string]string{
		"classic.gohtml": `{{define "classic"}}x{{end}}`,
	}))
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, "s", testRecord(store.TemplateClassic)))
	assert.Contains(t, buf.String(), "Sacha Cacao")
}

// writeTemplateDir lays out files under dir/templates and returns a
// filesystem rooted at dir, matching how loadFrom globs.
func writeTemplateDir(t *testing.T, dir string, files map[string]string) fs.FS {
	t.Helper()
	tplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tplDir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tplDir, name), []byte(content), 0644))
	}
	return os.DirFS(dir)
}
