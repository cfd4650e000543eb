package inference

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiPrompt = `
Dress the person in the first image with the garment shown in the second image.
Keep the person's face, body shape, pose and background unchanged.
Fit the garment naturally and keep its colour, pattern and logos.
Return only the edited photo.
`

// Gemini asks a Gemini image model for the try-on.
type Gemini struct {
	APIKey string
	Model  string
}

func (g *Gemini) TryOn(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	person, err := decodeImage(req.PersonBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to read person image: %v", err)
	}
	var garment []byte
	if req.GarmentBase64 != "" {
		garment, err = decodeImage(req.GarmentBase64)
	} else {
		garment, err = fetchImage(ctx, req.GarmentURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read garment image: %v", err)
	}

	model := client.GenerativeModel(g.Model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(geminiPrompt),
		genai.ImageData("jpeg", person),
		genai.ImageData("jpeg", garment),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %v", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}
	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			return &Result{ImageBase64: base64.StdEncoding.EncodeToString(p.Data)}, nil
		case genai.Text:
			text = append(text, string(p))
		}
	}
	if len(text) > 0 {
		return nil, fmt.Errorf("model returned no image: %s", strings.Join(text, " "))
	}
	return nil, fmt.Errorf("unexpected response format (empty content)")
}

func decodeImage(b64 string) ([]byte, error) {
	if i := strings.Index(b64, ","); strings.HasPrefix(b64, "data:") && i >= 0 {
		b64 = b64[i+1:]
	}
	return base64.StdEncoding.DecodeString(b64)
}

func fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image, status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
