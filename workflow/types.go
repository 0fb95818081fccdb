package workflow

import (
	"errors"
	"fmt"

	"logomotion/gemini"
)

// Stage is derived from the artifacts and busy flags, never stored.
type Stage int

const (
	StageNoLogo Stage = iota
	StageLogoGenerating
	StageLogoReady
	StageVideoGenerating
	StageVideoReady
)

func (s Stage) String() string {
	switch s {
	case StageNoLogo:
		return "no logo"
	case StageLogoGenerating:
		return "generating logo"
	case StageLogoReady:
		return "logo ready"
	case StageVideoGenerating:
		return "generating video"
	case StageVideoReady:
		return "video ready"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Busy reports whether a generation task is in flight.
func (s Stage) Busy() bool {
	return s == StageLogoGenerating || s == StageVideoGenerating
}

// LogoSource records where a logo came from.
type LogoSource string

const (
	SourceGenerated LogoSource = "generated"
	SourceUploaded  LogoSource = "uploaded"
)

// Logo is the in-memory source image.
type Logo struct {
	Base64   string
	MIMEType string
	Source   LogoSource

	// Prompt is the description for generated logos
	Prompt string

	// Path is the file for uploaded logos
	Path string
}

// Video is a downloaded animation.
type Video struct {
	URL         string
	Path        string
	Size        int64
	Prompt      string
	AspectRatio gemini.AspectRatio
}

// State is what the presentation layer renders.
type State struct {
	Stage              Stage
	Logo               *Logo
	Video              *Video
	Err                error
	CredentialSelected bool

	// Status is the latest progress message while a video renders
	Status string
}

const (
	stageLogo  = "Logo generation"
	stageVideo = "Video generation"
)

var (
	// ErrBusy is returned when a task starts while another is in flight.
	ErrBusy = errors.New("another generation is already running")

	// ErrNoAPIKey means no key was selected when a task started.
	ErrNoAPIKey = errors.New("no API key selected")
)

// CredentialRejectedMessage is shown when the service refuses the key.
const CredentialRejectedMessage = "API key is invalid or was not found. Please select a valid API key and try again."

// ValidationError is missing user input. No remote call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CredentialError means the key is missing or was rejected. The gate has
// been closed.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	if errors.Is(e.Err, ErrNoAPIKey) {
		return "No API key selected. Please select an API key to continue."
	}
	return CredentialRejectedMessage
}

func (e *CredentialError) Unwrap() error { return e.Err }

// TaskError is any other failure of a task, prefixed with the task name.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
