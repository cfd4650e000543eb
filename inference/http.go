package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"
)

// HTTPClient posts multipart requests to {BaseURL}/api/try-on.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
	// TempDir stages the images before upload; empty means os.TempDir().
	TempDir string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

type tryOnResponse struct {
	ImageBase64 string `json:"image_base64"`
	Detail      string `json:"detail"`
}

func (c *HTTPClient) TryOn(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var staged []string
	defer func() {
		for _, p := range staged {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Printf("inference: failed to remove temp file %s: %v", p, err)
			}
		}
	}()

	personPath, err := c.stageBase64(req.PersonBase64, "person_*.jpg")
	if err != nil {
		return nil, err
	}
	staged = append(staged, personPath)

	var garmentPath string
	if req.GarmentBase64 != "" {
		garmentPath, err = c.stageBase64(req.GarmentBase64, "garment_*.jpg")
	} else {
		garmentPath, err = c.stageURL(ctx, req.GarmentURL)
	}
	if garmentPath != "" {
		staged = append(staged, garmentPath)
	}
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := attachFile(writer, "file", "person.jpg", personPath); err != nil {
		return nil, err
	}
	if err := attachFile(writer, "garm_img", "garment.jpg", garmentPath); err != nil {
		return nil, err
	}
	if req.GarmentBase64 == "" {
		if err := writer.WriteField("garment_url", req.GarmentURL); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("relax_validation", strconv.FormatBool(req.RelaxValidation)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/try-on", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("try-on request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload tryOnResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &EndpointError{Status: resp.StatusCode, Detail: payload.Detail}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode try-on response: %w", decodeErr)
	}
	if payload.ImageBase64 == "" {
		return nil, fmt.Errorf("no image_base64 in response")
	}
	return &Result{ImageBase64: payload.ImageBase64}, nil
}

func (c *HTTPClient) stageBase64(b64, pattern string) (string, error) {
	if i := strings.Index(b64, ","); strings.HasPrefix(b64, "data:") && i >= 0 {
		b64 = b64[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image: %w", err)
	}
	return c.stage(pattern, bytes.NewReader(data))
}

func (c *HTTPClient) stageURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("garment download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("garment download failed: %d", resp.StatusCode)
	}
	return c.stage("garment_*.jpg", resp.Body)
}

func (c *HTTPClient) stage(pattern string, r io.Reader) (string, error) {
	f, err := os.CreateTemp(c.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return f.Name(), fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

func attachFile(w *multipart.Writer, field, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, name))
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
