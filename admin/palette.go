package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/c360studio/tienditas/llm"
	"github.com/c360studio/tienditas/store"
)

// paletteInstruction asks for a strict JSON object matching the theme slot
// set. Wording kept tight: extra prose around the object is tolerated by
// ExtractJSON but the keys are not negotiable.
const paletteInstruction = `Analiza el logo adjunto y deriva una paleta de colores para una tienda online que combine con él. Responde únicamente con un objeto JSON con exactamente estas seis claves, cada una con un color hexadecimal CSS: "primary", "secondary", "background", "text", "cardBackground", "buttonText". Sin texto adicional.`

// Completer is the blocking subset of the LLM client the palette
// extractor needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// DerivePalette asks the model for a six-slot color palette matching the
// uploaded store logo. The response must be a strict JSON object covering
// every canonical theme slot; on any failure (transport, malformed JSON,
// missing slot) an error is returned and the caller keeps its previous
// palette.
func DerivePalette(ctx context.Context, client Completer, logo llm.Image) (map[string]string, error) {
	if len(logo.Data) == 0 {
		return nil, fmt.Errorf("no logo image provided")
	}
	if logo.MIME == "" {
		logo.MIME = "image/png"
	}

	temperature := 0.0
	resp, err := client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: paletteInstruction},
		},
		Image:       &logo,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("palette generation failed: %w", err)
	}

	return parsePalette(resp.Content)
}

// parsePalette validates the model output against the theme slot schema.
func parsePalette(content string) (map[string]string, error) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("palette response contains no JSON object")
	}

	var palette map[string]string
	if err := json.Unmarshal([]byte(raw), &palette); err != nil {
		return nil, fmt.Errorf("parse palette response: %w", err)
	}

	for _, slot := range store.ThemeSlots {
		if palette[slot] == "" {
			return nil, fmt.Errorf("palette response missing slot %q", slot)
		}
	}

	// Keep only the canonical slots; models sometimes volunteer extras.
	out := make(map[string]string, len(store.ThemeSlots))
	for _, slot := range store.ThemeSlots {
		out[slot] = palette[slot]
	}
	return out, nil
}
