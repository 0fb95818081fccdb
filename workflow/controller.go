// Package workflow drives the two-step logo then animation pipeline and owns
// the state the presentation layer renders.
package workflow

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"logomotion/credential"
	"logomotion/gemini"
	"logomotion/media"
)

// Generator is the part of the generation client the controller drives.
type Generator interface {
	GenerateLogoImage(ctx context.Context, description string) (string, error)
	GenerateAnimatedVideo(ctx context.Context, req gemini.VideoRequest, onStatus gemini.StatusFunc) (string, error)
}

// GeneratorFactory builds a generator for the key resolved at call time.
type GeneratorFactory func(apiKey string) (Generator, error)

// ClientFactory adapts a gemini.Factory.
func ClientFactory(f gemini.Factory) GeneratorFactory {
	return func(apiKey string) (Generator, error) {
		client, err := f(apiKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// KeySource returns the currently selected API key, or "".
type KeySource interface {
	APIKey() string
}

// Store resolves, exports and releases object URLs handed out for videos.
type Store interface {
	Path(url string) (string, bool)
	Export(url, dst string) (string, error)
	Release(url string) error
}

// Controller serializes generation tasks and tracks their artifacts.
type Controller struct {
	gate    *credential.Gate
	keys    KeySource
	factory GeneratorFactory
	store   Store
	logger  *zap.Logger

	mu        sync.Mutex
	logo      *Logo
	video     *Video
	err       error
	status    string
	logoBusy  bool
	videoBusy bool
}

// NewController wires a controller. store may be nil, in which case video
// URLs are never released.
func NewController(gate *credential.Gate, keys KeySource, factory GeneratorFactory, store Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		gate:    gate,
		keys:    keys,
		factory: factory,
		store:   store,
		logger:  logger,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Stage:  c.stage(),
		Err:    c.err,
		Status: c.status,
	}
	if c.gate != nil {
		s.CredentialSelected = c.gate.Selected()
	}
	if c.logo != nil {
		logo := *c.logo
		s.Logo = &logo
	}
	if c.video != nil {
		video := *c.video
		s.Video = &video
	}
	return s
}

func (c *Controller) stage() Stage {
	switch {
	case c.logoBusy:
		return StageLogoGenerating
	case c.videoBusy:
		return StageVideoGenerating
	case c.video != nil:
		return StageVideoReady
	case c.logo != nil:
		return StageLogoReady
	default:
		return StageNoLogo
	}
}

// ClearError empties the error slot.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
}

// GenerateLogo asks the image model for a logo matching description.
func (c *Controller) GenerateLogo(ctx context.Context, description string) error {
	description = strings.TrimSpace(description)

	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	if description == "" {
		err := c.fail(&ValidationError{Message: "Please enter a description for your logo."})
		c.mu.Unlock()
		return err
	}
	key, err := c.apiKey()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.logoBusy = true
	c.err = nil
	c.mu.Unlock()

	c.logger.Info("logo generation started", zap.Int("description_len", len(description)))

	image, err := c.generateLogo(ctx, key, description)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoBusy = false
	if err != nil {
		return c.fail(c.classify(stageLogo, err))
	}

	c.replaceLogo(&Logo{
		Base64:   image,
		MIMEType: gemini.LogoMIMEType,
		Source:   SourceGenerated,
		Prompt:   description,
	})
	c.logger.Info("logo generation finished", zap.Int("bytes", len(image)))
	return nil
}

func (c *Controller) generateLogo(ctx context.Context, key, description string) (string, error) {
	gen, err := c.factory(key)
	if err != nil {
		return "", err
	}
	return gen.GenerateLogoImage(ctx, description)
}

// UploadLogo reads path and makes it the current logo. A read failure leaves
// the existing artifacts alone.
func (c *Controller) UploadLogo(ctx context.Context, path string) error {
	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	payload, err := media.EncodeFileAsPayload(ctx, path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("logo upload failed", zap.String("path", path), zap.Error(err))
		return c.fail(&TaskError{Task: "Upload", Err: err})
	}
	if c.busy() {
		return ErrBusy
	}

	c.replaceLogo(&Logo{
		Base64:   payload.Base64,
		MIMEType: payload.MIMEType,
		Source:   SourceUploaded,
		Path:     path,
	})
	c.logger.Info("logo uploaded", zap.String("path", path), zap.Int64("bytes", payload.Size))
	return nil
}

// SetLogo installs an already encoded logo.
func (c *Controller) SetLogo(payload media.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return ErrBusy
	}
	if payload.Base64 == "" {
		return c.fail(&ValidationError{Message: "The logo image is empty."})
	}
	mimeType := payload.MIMEType
	if mimeType == "" {
		mimeType = media.DefaultImageMIMEType
	}
	c.replaceLogo(&Logo{
		Base64:   media.StripDataURLPrefix(payload.Base64),
		MIMEType: mimeType,
		Source:   SourceUploaded,
	})
	return nil
}

// Animate turns the current logo into a video. onStatus receives every
// progress message and may be nil.
func (c *Controller) Animate(ctx context.Context, prompt string, aspect gemini.AspectRatio, onStatus gemini.StatusFunc) error {
	prompt = strings.TrimSpace(prompt)
	if !aspect.Valid() {
		aspect = gemini.AspectLandscape
	}

	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.logo == nil {
		err := c.fail(&ValidationError{Message: "Please generate or upload a logo first."})
		c.mu.Unlock()
		return err
	}
	if prompt == "" {
		err := c.fail(&ValidationError{Message: "Please describe how the logo should move."})
		c.mu.Unlock()
		return err
	}
	key, err := c.apiKey()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	logo := *c.logo
	c.releaseVideo()
	c.err = nil
	c.status = ""
	c.videoBusy = true
	c.mu.Unlock()

	c.logger.Info("video generation started",
		zap.String("aspect_ratio", aspect.Ratio()),
		zap.Int("prompt_len", len(prompt)))

	report := func(status string) {
		c.mu.Lock()
		c.status = status
		c.mu.Unlock()
		if onStatus != nil {
			onStatus(status)
		}
	}

	url, err := c.generateVideo(ctx, key, gemini.VideoRequest{
		Image:       logo.Base64,
		MIMEType:    logo.MIMEType,
		Prompt:      prompt,
		AspectRatio: aspect,
	}, report)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoBusy = false
	c.status = ""
	if err != nil {
		return c.fail(c.classify(stageVideo, err))
	}

	video := &Video{URL: url, Prompt: prompt, AspectRatio: aspect}
	if c.store != nil {
		if path, ok := c.store.Path(url); ok {
			video.Path = path
			if info, statErr := os.Stat(path); statErr == nil {
				video.Size = info.Size()
			}
		}
	}
	c.video = video
	c.logger.Info("video generation finished", zap.String("url", url), zap.Int64("bytes", video.Size))
	return nil
}

func (c *Controller) generateVideo(ctx context.Context, key string, req gemini.VideoRequest, onStatus gemini.StatusFunc) (string, error) {
	gen, err := c.factory(key)
	if err != nil {
		return "", err
	}
	return gen.GenerateAnimatedVideo(ctx, req, onStatus)
}

// Close releases the current video URL.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseVideo()
}

func (c *Controller) busy() bool {
	return c.logoBusy || c.videoBusy
}

// apiKey resolves the key for a task. Caller holds mu.
func (c *Controller) apiKey() (string, error) {
	if c.gate != nil && !c.gate.Selected() {
		return "", c.fail(&CredentialError{Err: ErrNoAPIKey})
	}
	key := ""
	if c.keys != nil {
		key = c.keys.APIKey()
	}
	if key == "" {
		if c.gate != nil {
			c.gate.InvalidateCredential()
		}
		return "", c.fail(&CredentialError{Err: ErrNoAPIKey})
	}
	return key, nil
}

// classify maps a task failure to the error shown to the user. Caller holds mu.
func (c *Controller) classify(task string, err error) error {
	if gemini.IsCredentialRejected(err) {
		c.logger.Warn("api key rejected", zap.String("task", task), zap.Error(err))
		if c.gate != nil {
			c.gate.InvalidateCredential()
		}
		return &CredentialError{Err: err}
	}
	if errors.Is(err, gemini.ErrMissingAPIKey) {
		if c.gate != nil {
			c.gate.InvalidateCredential()
		}
		return &CredentialError{Err: ErrNoAPIKey}
	}
	if errors.Is(err, context.Canceled) {
		c.logger.Info("task cancelled", zap.String("task", task))
		return &TaskError{Task: task, Err: err}
	}
	c.logger.Error("task failed", zap.String("task", task), zap.Error(err))
	return &TaskError{Task: task, Err: err}
}

// fail sets the error slot and returns err. Caller holds mu.
func (c *Controller) fail(err error) error {
	c.err = err
	return err
}

// replaceLogo installs logo, discarding the previous video and error. Caller
// holds mu.
func (c *Controller) replaceLogo(logo *Logo) {
	c.releaseVideo()
	c.logo = logo
	c.err = nil
}

// releaseVideo drops the current video and its object URL. Caller holds mu.
func (c *Controller) releaseVideo() error {
	if c.video == nil {
		return nil
	}
	url := c.video.URL
	c.video = nil
	if c.store == nil {
		return nil
	}
	if err := c.store.Release(url); err != nil {
		c.logger.Warn("failed to release video", zap.String("url", url), zap.Error(err))
		return err
	}
	c.logger.Debug("video released", zap.String("url", url))
	return nil
}
