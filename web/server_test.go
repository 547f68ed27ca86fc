package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tienditas/admin"
	"github.com/c360studio/tienditas/chat"
	"github.com/c360studio/tienditas/llm"
	"github.com/c360studio/tienditas/llm/testutil"
	"github.com/c360studio/tienditas/render"
	"github.com/c360studio/tienditas/storage"
	"github.com/c360studio/tienditas/store"
)

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := store.NewRepository(storage.NewMemoryBackend())
	editor := admin.NewEditor(context.Background(), repo)
	engine, err := render.NewEngine(logger)
	require.NoError(t, err)

	opts = append([]ServerOption{WithLogger(logger)}, opts...)
	return NewServer(editor, engine, opts...)
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// ----------------------------------------------------------------------------
// Storefront
// ----------------------------------------------------------------------------

func TestRootRedirectsToDefaultStore(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := get(mux, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/"+store.DefaultStoreID, rec.Header().Get("Location"))
}

func TestStorefrontRendersCommittedStore(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := get(mux, "/sachacacao")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sacha Cacao")
	assert.Contains(t, body, "Tableta de Chocolate 70%")
	assert.Contains(t, body, "--theme-primary")
}

func TestStorefrontUnknownStore(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := get(mux, "/no-such-store")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no-such-store")
}

func TestStorefrontIgnoresDraftEdits(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	rec := postJSON(t, mux, "/api/admin/field", SetFieldRequest{
		Path:  "sachacacao.name",
		Value: json.RawMessage(`"Cacao Renovado"`),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	page := get(mux, "/sachacacao")
	assert.Contains(t, page.Body.String(), "Sacha Cacao")
	assert.NotContains(t, page.Body.String(), "Cacao Renovado")

	commit := postJSON(t, mux, "/api/admin/commit", struct{}{})
	require.Equal(t, http.StatusOK, commit.Code)

	page = get(mux, "/sachacacao")
	assert.Contains(t, page.Body.String(), "Cacao Renovado")
}

// ----------------------------------------------------------------------------
// Admin API
// ----------------------------------------------------------------------------

func TestAdminState(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := get(mux, "/api/admin/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var state AdminState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, store.DefaultStoreID, state.Selected)
	assert.Contains(t, state.Draft, "sachacacao")
	assert.Contains(t, state.Committed, "cafedelvalle")
}

func TestSelectStore(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := postJSON(t, mux, "/api/admin/select", SelectRequest{StoreID: "cafedelvalle"})
	require.Equal(t, http.StatusOK, rec.Code)

	state := get(mux, "/api/admin/state")
	var got AdminState
	require.NoError(t, json.Unmarshal(state.Body.Bytes(), &got))
	assert.Equal(t, "cafedelvalle", got.Selected)

	rec = postJSON(t, mux, "/api/admin/select", SelectRequest{StoreID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetFieldValidation(t *testing.T) {
	mux := newTestServer(t).Routes()

	tests := []struct {
		name string
		path string
		val  string
		code int
	}{
		{"store field", "sachacacao.name", `"Nuevo Nombre"`, http.StatusOK},
		{"nested banner field", "sachacacao.heroBanner.title", `"Oferta"`, http.StatusOK},
		{"product price", "sachacacao.products.0.price", `18.5`, http.StatusOK},
		{"theme slot", "sachacacao.theme.primary", `"#112233"`, http.StatusOK},
		{"unknown store", "nope.name", `"x"`, http.StatusBadRequest},
		{"unknown field", "sachacacao.favoriteColor", `"x"`, http.StatusBadRequest},
		{"wrong scalar type", "sachacacao.name", `42`, http.StatusBadRequest},
		{"index out of range", "sachacacao.products.99.price", `5`, http.StatusBadRequest},
		{"bare store path", "sachacacao", `"x"`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, mux, "/api/admin/field", SetFieldRequest{
				Path:  tt.path,
				Value: json.RawMessage(tt.val),
			})
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestProductLifecycle(t *testing.T) {
	mux := newTestServer(t).Routes()

	tmpl := get(mux, "/api/admin/product/template")
	require.Equal(t, http.StatusOK, tmpl.Code)
	var blank store.Product
	require.NoError(t, json.Unmarshal(tmpl.Body.Bytes(), &blank))
	assert.Zero(t, blank.ID)

	blank.Name = "Trufas"
	blank.Price = 12
	rec := postJSON(t, mux, "/api/admin/product", ProductRequest{Product: blank})
	require.Equal(t, http.StatusOK, rec.Code)
	var saved store.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, int64(4), saved.ID)

	rec = postJSON(t, mux, "/api/admin/product", ProductRequest{
		Product: store.Product{Name: "Gratis", Price: -1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, mux, "/api/admin/product/delete", DeleteProductRequest{ProductID: saved.ID})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, mux, "/api/admin/product", ProductRequest{
		StoreID: "nope",
		Product: store.Product{Name: "Perdido", Price: 1},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStore(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := postJSON(t, mux, "/api/admin/store", CreateStoreRequest{StoreID: "lanueva"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CreateStoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/lanueva", resp.VisitURL)

	// Not public until committed.
	assert.Equal(t, http.StatusNotFound, get(mux, "/lanueva").Code)
	postJSON(t, mux, "/api/admin/commit", struct{}{})
	assert.Equal(t, http.StatusOK, get(mux, "/lanueva").Code)

	rec = postJSON(t, mux, "/api/admin/store", CreateStoreRequest{StoreID: "lanueva"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postJSON(t, mux, "/api/admin/store", CreateStoreRequest{StoreID: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitNotification(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := postJSON(t, mux, "/api/admin/commit", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["notification"], "Sacha Cacao")

	note := get(mux, "/api/admin/notification")
	require.Equal(t, http.StatusOK, note.Code)
	assert.Contains(t, note.Body.String(), "guardados correctamente")
}

// ----------------------------------------------------------------------------
// Palette
// ----------------------------------------------------------------------------

const testPaletteJSON = `{"primary": "#4a2c2a", "secondary": "#8d6e63", ` +
	`"background": "#fff8e1", "text": "#3e2723", "cardBackground": "#ffffff", ` +
	`"buttonText": "#ffffff"}`

func TestPaletteAppliesToDraft(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{{Content: testPaletteJSON}},
	}
	srv := newTestServer(t, WithPaletteClient(mock))
	mux := srv.Routes()

	rec := postJSON(t, mux, "/api/admin/palette", PaletteRequest{
		StoreID: "sachacacao",
		MIME:    "image/png",
		Image:   "aGVsbG8=",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PaletteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "#4a2c2a", resp.Theme["primary"])
	assert.Len(t, resp.Theme, len(store.ThemeSlots))

	assert.Equal(t, resp.Theme, srv.editor.Draft()["sachacacao"].Theme)
	assert.NotEqual(t, resp.Theme, srv.editor.Committed()["sachacacao"].Theme)
}

func TestPaletteModelFailureLeavesDraftUntouched(t *testing.T) {
	mock := &testutil.MockClient{Err: errors.New("model offline")}
	srv := newTestServer(t, WithPaletteClient(mock))
	mux := srv.Routes()

	before := srv.editor.Draft()["sachacacao"].Theme

	rec := postJSON(t, mux, "/api/admin/palette", PaletteRequest{
		MIME:  "image/png",
		Image: "aGVsbG8=",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, before, srv.editor.Draft()["sachacacao"].Theme)
}

func TestPaletteRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, WithPaletteClient(&testutil.MockClient{}))
	mux := srv.Routes()

	rec := postJSON(t, mux, "/api/admin/palette", PaletteRequest{Image: "not base64!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaletteUnconfigured(t *testing.T) {
	mux := newTestServer(t).Routes()
	rec := postJSON(t, mux, "/api/admin/palette", PaletteRequest{Image: "aGVsbG8="})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ----------------------------------------------------------------------------
// Cart
// ----------------------------------------------------------------------------

func TestCartMessage(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := postJSON(t, mux, "/api/cart/message", CartMessageRequest{
		StoreID: "sachacacao",
		Items: []CartLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 32.50, resp.Total, 0.0001)
	assert.Equal(t, 3, resp.Count)
	assert.Contains(t, resp.Message, "Sacha Cacao")
	assert.Contains(t, resp.Message, "(x2)")
	assert.True(t, strings.HasPrefix(resp.Link, "https://wa.me/51987654321?text="))
	assert.NotContains(t, resp.Link, "+")
}

func TestCartMessageErrors(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := postJSON(t, mux, "/api/cart/message", CartMessageRequest{
		StoreID: "sachacacao",
		Items:   []CartLine{{ProductID: 99, Quantity: 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, mux, "/api/cart/message", CartMessageRequest{StoreID: "sachacacao"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, mux, "/api/cart/message", CartMessageRequest{
		StoreID: "nope",
		Items:   []CartLine{{ProductID: 1, Quantity: 1}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ----------------------------------------------------------------------------
// Chat
// ----------------------------------------------------------------------------

func newChatServer(t *testing.T, mock *testutil.MockClient) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newTestServer(t, WithChatManager(chat.NewManager(mock, logger))).Routes()
}

func TestChatStreamsReply(t *testing.T) {
	mock := &testutil.MockClient{Streams: [][]string{{"Hola", ", amig@"}}}
	mux := newChatServer(t, mock)

	rec := postJSON(t, mux, "/api/chat/sachacacao", ChatRequest{Message: "hola"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"delta":"Hola"}`)
	assert.Contains(t, body, `data: {"delta":", amig@"}`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, visitCookie, cookies[0].Name)
}

func TestChatTranscriptFollowsVisitCookie(t *testing.T) {
	mock := &testutil.MockClient{Streams: [][]string{{"Hola"}}}
	mux := newChatServer(t, mock)

	post := postJSON(t, mux, "/api/chat/sachacacao", ChatRequest{Message: "hola"})
	require.Equal(t, http.StatusOK, post.Code)
	visit := post.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/chat/sachacacao", nil)
	req.AddCookie(visit)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var transcript []chat.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.Len(t, transcript, 2)
	assert.Equal(t, chat.AuthorUser, transcript[0].Author)
	assert.Equal(t, "Hola", transcript[1].Content)
}

func TestChatFailureStreamsFallback(t *testing.T) {
	mock := &testutil.MockClient{Err: errors.New("endpoint down")}
	mux := newChatServer(t, mock)

	rec := postJSON(t, mux, "/api/chat/sachacacao", ChatRequest{Message: "hola"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), chat.FallbackMessage)
	assert.Contains(t, rec.Body.String(), `"fallback":true`)
	assert.True(t, strings.HasSuffix(rec.Body.String(), "data: [DONE]\n\n"))
}

func TestChatMidStreamFailureFlagsFallback(t *testing.T) {
	mock := &testutil.MockClient{
		Streams:   [][]string{{"parcial"}},
		StreamErr: errors.New("upstream hiccup"),
	}
	mux := newChatServer(t, mock)

	rec := postJSON(t, mux, "/api/chat/sachacacao", ChatRequest{Message: "hola"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The partial delta arrives flag-free; the fallback carries the flag so
	// the widget replaces the partial text instead of appending to it.
	body := rec.Body.String()
	assert.Contains(t, body, `data: {"delta":"parcial"}`)
	assert.Contains(t, body, `"fallback":true`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestChatUnknownStore(t *testing.T) {
	mux := newChatServer(t, &testutil.MockClient{})
	rec := postJSON(t, mux, "/api/chat/nope", ChatRequest{Message: "hola"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatUnconfigured(t *testing.T) {
	mux := newTestServer(t).Routes()
	rec := postJSON(t, mux, "/api/chat/sachacacao", ChatRequest{Message: "hola"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ----------------------------------------------------------------------------
// Media
// ----------------------------------------------------------------------------

type fakeUploader struct {
	url     string
	err     error
	enabled bool
}

func (f *fakeUploader) Upload(_ context.Context, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	io.Copy(io.Discard, r)
	return f.url, nil
}

func (f *fakeUploader) Enabled() bool { return f.enabled }

func multipartImage(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, "logo.png")
	require.NoError(t, err)
	part.Write([]byte("fake image bytes"))
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	up := &fakeUploader{url: "https://cdn.example.com/logo.png", enabled: true}
	mux := newTestServer(t, WithUploader(up)).Routes()

	body, contentType := multipartImage(t, "image")
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, up.url, resp.URL)
}

func TestMediaUploadDisabled(t *testing.T) {
	mux := newTestServer(t, WithUploader(&fakeUploader{})).Routes()

	body, contentType := multipartImage(t, "image")
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMediaUploadMissingFile(t *testing.T) {
	up := &fakeUploader{url: "unused", enabled: true}
	mux := newTestServer(t, WithUploader(up)).Routes()

	body, contentType := multipartImage(t, "wrongfield")
	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----------------------------------------------------------------------------
// Misc
// ----------------------------------------------------------------------------

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestServer(t, WithMetrics(NewMetrics())).Routes()

	require.Equal(t, http.StatusOK, get(mux, "/sachacacao").Code)

	rec := get(mux, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tienditas_page_renders_total")
}

func TestHealthz(t *testing.T) {
	rec := get(newTestServer(t).Routes(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestDecodeFieldValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{"string", `"hola"`, "hola"},
		{"number", `12.5`, 12.5},
		{"palette", `{"primary": "#111111"}`, map[string]string{"primary": "#111111"}},
		{
			"product",
			`{"id": 3, "name": "Trufas", "price": 9.5}`,
			store.Product{ID: 3, Name: "Trufas", Price: 9.5},
		},
		{
			"product list",
			`[{"id": 1, "name": "A", "price": 1}]`,
			[]store.Product{{ID: 1, Name: "A", Price: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeFieldValue(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeFieldValue(nil)
	assert.Error(t, err)
	_, err = decodeFieldValue(json.RawMessage(`true`))
	assert.Error(t, err)
}
