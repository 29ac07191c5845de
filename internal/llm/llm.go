package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	// DefaultTextModel is the Gemini model used for listings and narratives.
	DefaultTextModel = "gemini-2.5-flash"
	// DefaultImageModel is the Imagen model used for listing photos.
	DefaultImageModel = "imagen-3.0-generate-002"
	// DefaultImageMIMEType is the output format requested from the image model.
	DefaultImageMIMEType = "image/jpeg"
	// JSONResponseType asks the model for raw JSON output.
	JSONResponseType = "application/json"
)

// TextGenerator turns a prompt into text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
}

// ImageGenerator turns a prompt into images.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, options ImageGenerationOptions) ([]Image, error)
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	Model            string        // Model to use (optional, defaults to client's text model)
	Temperature      float32       // Temperature for randomness (0.0 to 2.0)
	MaxTokens        int32         // Maximum number of tokens to generate
	ResponseMIMEType string        // "application/json" biases the model towards raw JSON
	ResponseSchema   *genai.Schema // Optional schema for structured output
}

// ImageGenerationOptions contains options for image generation
type ImageGenerationOptions struct {
	Model    string // Model to use (optional, defaults to client's image model)
	Count    int    // Number of images requested
	MIMEType string // Output MIME type, e.g. image/jpeg
}

// Image is a single generated image. Either Data or URI is set.
type Image struct {
	Data     []byte
	MIMEType string
	URI      string
}

// Reference returns something a browser can load: the URI when the provider
// stored the image remotely, otherwise an inline data URI.
func (i Image) Reference() string {
	if i.URI != "" {
		return i.URI
	}
	mime := i.MIMEType
	if mime == "" {
		mime = DefaultImageMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(i.Data))
}

// Config configures the Gemini client. The API key is passed in explicitly.
type Config struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

// Client talks to the Gemini API for text and the Imagen API for images.
type Client struct {
	apiKey     string
	textModel  string
	imageModel string
	gClient    *genai.Client
}

var (
	_ TextGenerator  = (*Client)(nil)
	_ ImageGenerator = (*Client)(nil)
)

// NewClient creates a new LLM client. A missing API key does not fail here;
// every call on the client then returns a configuration error instead.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	if c.imageModel == "" {
		c.imageModel = DefaultImageModel
	}
	if c.apiKey == "" {
		return c, nil
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Op: "new client", Err: fmt.Errorf("failed to create Gemini client: %w", err)}
	}
	c.gClient = gClient
	return c, nil
}

func (c *Client) ready(op string) error {
	if c.gClient == nil {
		return &Error{Kind: KindConfiguration, Op: op, Err: ErrMissingAPIKey}
	}
	return nil
}

// GenerateText generates text using the LLM with specified options
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	const op = "generate text"
	if prompt == "" {
		return "", &Error{Kind: KindGeneric, Op: op, Err: fmt.Errorf("prompt cannot be empty")}
	}
	if err := c.ready(op); err != nil {
		return "", err
	}

	modelName := c.textModel
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  genai.RoleUser,
	}}

	var config *genai.GenerateContentConfig
	if options.MaxTokens > 0 || options.Temperature > 0 || options.ResponseMIMEType != "" || options.ResponseSchema != nil {
		config = &genai.GenerateContentConfig{}
		if options.MaxTokens > 0 {
			config.MaxOutputTokens = options.MaxTokens
		}
		if options.Temperature > 0 {
			config.Temperature = genai.Ptr(options.Temperature)
		}
		if options.ResponseMIMEType != "" {
			config.ResponseMIMEType = options.ResponseMIMEType
		}
		if options.ResponseSchema != nil {
			config.ResponseMIMEType = JSONResponseType
			config.ResponseSchema = options.ResponseSchema
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", classify(op, fmt.Errorf("failed to generate text with %s: %w", modelName, err))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: KindEmptyResponse, Op: op, Err: fmt.Errorf("empty response from %s", modelName)}
	}

	return text, nil
}

// GenerateImages generates up to options.Count images. Images filtered by the
// provider's safety checks are skipped, so fewer (or zero) images may come back.
func (c *Client) GenerateImages(ctx context.Context, prompt string, options ImageGenerationOptions) ([]Image, error) {
	const op = "generate images"
	if prompt == "" {
		return nil, &Error{Kind: KindGeneric, Op: op, Err: fmt.Errorf("prompt cannot be empty")}
	}
	if err := c.ready(op); err != nil {
		return nil, err
	}

	modelName := c.imageModel
	if options.Model != "" {
		modelName = options.Model
	}
	mimeType := options.MIMEType
	if mimeType == "" {
		mimeType = DefaultImageMIMEType
	}

	config := &genai.GenerateImagesConfig{OutputMIMEType: mimeType}
	if options.Count > 0 {
		config.NumberOfImages = int32(options.Count)
	}

	resp, err := c.gClient.Models.GenerateImages(ctx, modelName, prompt, config)
	if err != nil {
		return nil, classify(op, fmt.Errorf("failed to generate images with %s: %w", modelName, err))
	}

	images := make([]Image, 0, len(resp.GeneratedImages))
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || generated.RAIFilteredReason != "" {
			continue
		}
		img := Image{
			Data:     generated.Image.ImageBytes,
			MIMEType: generated.Image.MIMEType,
			URI:      generated.Image.GCSURI,
		}
		if img.MIMEType == "" {
			img.MIMEType = mimeType
		}
		if len(img.Data) == 0 && img.URI == "" {
			continue
		}
		images = append(images, img)
	}

	return images, nil
}

// TextModel returns the default text model name.
func (c *Client) TextModel() string {
	return c.textModel
}

// ImageModel returns the default image model name.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// Close releases client resources. The genai client holds no open connections,
// so this exists for symmetry with other clients.
func (c *Client) Close() {}
