// Package gemini provides a client for the Gemini API image (Imagen) and video
// (Veo) generation endpoints, including long-running operation polling.
package gemini

// AspectRatio of a generated video
type AspectRatio string

const (
	// AspectLandscape is 16:9
	AspectLandscape AspectRatio = "landscape"
	// AspectPortrait is 9:16
	AspectPortrait AspectRatio = "portrait"
)

// Ratio returns the API value for the aspect ratio.
func (a AspectRatio) Ratio() string {
	switch a {
	case AspectPortrait:
		return "9:16"
	default:
		return "16:9"
	}
}

// Valid reports whether a is a known aspect ratio.
func (a AspectRatio) Valid() bool {
	return a == AspectLandscape || a == AspectPortrait
}

// Toggle switches between landscape and portrait.
func (a AspectRatio) Toggle() AspectRatio {
	if a == AspectPortrait {
		return AspectLandscape
	}
	return AspectPortrait
}

// ParseAspectRatio accepts the names and the ratios.
func ParseAspectRatio(s string) (AspectRatio, bool) {
	switch s {
	case "landscape", "16:9":
		return AspectLandscape, true
	case "portrait", "9:16":
		return AspectPortrait, true
	default:
		return "", false
	}
}

const (
	// VideoResolution is fixed for every animation
	VideoResolution = "720p"

	// LogoAspectRatio is fixed for every logo
	LogoAspectRatio = "1:1"

	// LogoMIMEType is the requested logo output format
	LogoMIMEType = "image/png"
)

// VideoRequest animates a source image.
type VideoRequest struct {
	// Image is the base64 source image
	Image string

	// MIMEType of Image; defaults to image/png
	MIMEType string

	// Prompt describes the animation
	Prompt string

	AspectRatio AspectRatio
}

// StatusFunc receives progress messages in order.
type StatusFunc func(status string)

// ============================================
// Imagen :predict wire types
// ============================================

type imageRequest struct {
	Instances  []imageInstance `json:"instances"`
	Parameters imageParameters `json:"parameters"`
}

type imageInstance struct {
	Prompt string `json:"prompt"`
}

type imageParameters struct {
	SampleCount   int            `json:"sampleCount"`
	AspectRatio   string         `json:"aspectRatio,omitempty"`
	OutputOptions *outputOptions `json:"outputOptions,omitempty"`
}

type outputOptions struct {
	MimeType string `json:"mimeType"`
}

type imageResponse struct {
	Predictions []imagePrediction `json:"predictions"`
}

type imagePrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
	RAIFilteredReason  string `json:"raiFilteredReason,omitempty"`
}

// ============================================
// Veo :predictLongRunning wire types
// ============================================

type videoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineImage `json:"image,omitempty"`
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`
	SampleCount int    `json:"sampleCount"`
}

// Operation is a long-running operation handle.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response *VideoResponse  `json:"response,omitempty"`
}

// OperationError is the status carried by a failed operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// VideoResponse is the result of a finished video operation.
type VideoResponse struct {
	GenerateVideoResponse *GenerateVideoResponse `json:"generateVideoResponse,omitempty"`
}

// GenerateVideoResponse lists generated samples.
type GenerateVideoResponse struct {
	GeneratedSamples        []GeneratedSample `json:"generatedSamples"`
	RAIMediaFilteredCount   int               `json:"raiMediaFilteredCount,omitempty"`
	RAIMediaFilteredReasons []string          `json:"raiMediaFilteredReasons,omitempty"`
}

// GeneratedSample is one generated video.
type GeneratedSample struct {
	Video *GeneratedVideo `json:"video"`
}

// GeneratedVideo points at a downloadable resource.
type GeneratedVideo struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
}

// VideoURI returns the first video locator, or "" when the operation carries
// no result.
func (op *Operation) VideoURI() string {
	if op == nil || op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return ""
	}
	for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if sample.Video != nil && sample.Video.URI != "" {
			return sample.Video.URI
		}
	}
	return ""
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
