package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// LogoPrompt frames a user description as a logo request.
func LogoPrompt(description string) string {
	return fmt.Sprintf("A professional, modern, vector-style logo for: %s. "+
		"The logo should be on a clean, solid-colored background. Minimalist, flat design.",
		strings.TrimSpace(description))
}

// GenerateLogoImage renders one square PNG logo and returns its base64 bytes.
func (c *Client) GenerateLogoImage(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", ErrEmptyPrompt
	}

	req := &imageRequest{
		Instances: []imageInstance{{Prompt: LogoPrompt(description)}},
		Parameters: imageParameters{
			SampleCount:   1,
			AspectRatio:   LogoAspectRatio,
			OutputOptions: &outputOptions{MimeType: LogoMIMEType},
		},
	}

	c.logger.Info("generating logo",
		zap.String("model", c.imageModel),
		zap.Int("description_len", len(description)))

	var resp imageResponse
	path := fmt.Sprintf("models/%s:predict", c.imageModel)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}

	for _, p := range resp.Predictions {
		if p.BytesBase64Encoded != "" {
			return p.BytesBase64Encoded, nil
		}
	}

	reason := "no images were generated"
	for _, p := range resp.Predictions {
		if p.RAIFilteredReason != "" {
			reason = "image was filtered: " + p.RAIFilteredReason
			break
		}
	}
	return "", &GenerationError{Stage: "logo", Reason: reason}
}
