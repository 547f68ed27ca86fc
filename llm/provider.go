package llm

import (
	"net/http"
	"sync"
)

// Provider adapts the client to one vendor's wire format.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// BuildURL constructs the full API endpoint URL from the configured
	// base URL (empty base = vendor default).
	BuildURL(baseURL string) string

	// SetHeaders adds provider-specific headers to the request.
	SetHeaders(req *http.Request)

	// BuildRequestBody creates the JSON request body. stream selects the
	// vendor's incremental-delivery mode.
	BuildRequestBody(model string, req Request, stream bool) ([]byte, error)

	// ParseResponse extracts a blocking completion from provider JSON.
	ParseResponse(body []byte, model string) (*Response, error)

	// ParseStreamEvent extracts the text delta from one server-sent event
	// payload. done reports the vendor's end-of-stream marker; events that
	// carry neither text nor the marker yield ("", false, nil).
	ParseStreamEvent(data []byte) (delta string, done bool, err error)
}

// providerRegistry holds registered providers.
var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider adds a provider to the registry.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider retrieves a provider by name.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	return names
}
