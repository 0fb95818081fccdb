package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusMessages rotate while a video renders.
var StatusMessages = []string{
	"Warming up the animation studio...",
	"Sketching the first keyframes...",
	"Teaching your logo how to move...",
	"Adding a touch of motion magic...",
	"Rendering frames at 720p...",
	"Smoothing out the transitions...",
	"This can take a few minutes, hang tight!",
	"Polishing the final cut...",
}

// FetchingStatus is reported once the render is done and the download starts
const FetchingStatus = "Fetching your video..."

// GenerateAnimatedVideo submits a Veo render of the source image, polls the
// operation until it is done, downloads the video and returns a local URL.
// onStatus may be nil.
func (c *Client) GenerateAnimatedVideo(ctx context.Context, req VideoRequest, onStatus StatusFunc) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if req.Image == "" {
		return "", ErrEmptyImage
	}
	if c.store == nil {
		return "", ErrNoObjectStore
	}
	if onStatus == nil {
		onStatus = func(string) {}
	}

	op, err := c.submitVideo(ctx, req)
	if err != nil {
		return "", err
	}

	op, err = c.waitForOperation(ctx, op, onStatus)
	if err != nil {
		return "", err
	}

	if op.Error != nil {
		return "", &APIError{
			StatusCode: op.Error.Code,
			Status:     op.Error.Status,
			Message:    op.Error.Message,
		}
	}

	uri := op.VideoURI()
	if uri == "" {
		reason := "operation completed but no result"
		if r := op.Response; r != nil && r.GenerateVideoResponse != nil && len(r.GenerateVideoResponse.RAIMediaFilteredReasons) > 0 {
			reason += ": " + strings.Join(r.GenerateVideoResponse.RAIMediaFilteredReasons, "; ")
		}
		return "", &GenerationError{Stage: "video", Reason: reason}
	}

	onStatus(FetchingStatus)

	data, mimeType, err := c.download(ctx, uri)
	if err != nil {
		return "", err
	}

	objectURL, err := c.store.Put(data, mimeType)
	if err != nil {
		return "", err
	}

	c.logger.Info("video ready",
		zap.String("operation", op.Name),
		zap.Int("bytes", len(data)),
		zap.String("url", objectURL))
	return objectURL, nil
}

// submitVideo starts the long-running render.
func (c *Client) submitVideo(ctx context.Context, req VideoRequest) (*Operation, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = LogoMIMEType
	}
	aspect := req.AspectRatio
	if !aspect.Valid() {
		aspect = AspectLandscape
	}

	body := &videoRequest{
		Instances: []videoInstance{{
			Prompt: req.Prompt,
			Image: &inlineImage{
				BytesBase64Encoded: req.Image,
				MimeType:           mimeType,
			},
		}},
		Parameters: videoParameters{
			AspectRatio: aspect.Ratio(),
			Resolution:  VideoResolution,
			SampleCount: 1,
		},
	}

	c.logger.Info("submitting video",
		zap.String("model", c.videoModel),
		zap.String("aspect_ratio", aspect.Ratio()))

	var op Operation
	path := fmt.Sprintf("models/%s:predictLongRunning", c.videoModel)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &op); err != nil {
		return nil, err
	}
	if op.Name == "" && !op.Done {
		return nil, &GenerationError{Stage: "video", Reason: "no operation returned"}
	}
	return &op, nil
}

// waitForOperation polls op at the fixed interval. Each wait advances the
// status message, so N polls produce N+1 callbacks.
func (c *Client) waitForOperation(ctx context.Context, op *Operation, onStatus StatusFunc) (*Operation, error) {
	idx := 0
	onStatus(c.messages[idx])

	polls := 0
	for !op.Done {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		idx = (idx + 1) % len(c.messages)
		onStatus(c.messages[idx])

		next, err := c.GetOperation(ctx, op.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to poll operation: %w", err)
		}
		op = next
		polls++

		c.logger.Debug("operation polled",
			zap.String("operation", op.Name),
			zap.Int("poll", polls),
			zap.Bool("done", op.Done))
	}
	return op, nil
}

// GetOperation refreshes an operation handle by name.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	if name == "" {
		return nil, fmt.Errorf("operation name is required")
	}
	var op Operation
	if err := c.doJSON(ctx, http.MethodGet, name, nil, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		op.Name = name
	}
	return &op, nil
}

// download fetches the finished video with the key attached.
func (c *Client) download(ctx context.Context, uri string) ([]byte, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("invalid video uri: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", requestError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &NetworkError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read video: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = "video/mp4"
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	c.logger.Debug("video downloaded",
		zap.Int("bytes", len(data)),
		zap.String("mime_type", mimeType),
		zap.Duration("latency", time.Since(start)))
	return data, mimeType, nil
}
