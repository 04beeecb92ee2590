// Package protocol defines the JSON envelopes exchanged with a browser pose
// pipeline over a websocket.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/tomz197/hopline/internal/pose"
)

// Inbound message types.
const (
	MsgKeypoints       = "keypoints"
	MsgJump            = "jump"
	MsgVisibility      = "visibility"
	MsgPause           = "pause"
	MsgResume          = "resume"
	MsgReset           = "reset"
	MsgCalibrate       = "calibrate"
	MsgCalibrateFinish = "calibrate_finish"
	MsgOverride        = "override"
	MsgCaptureError    = "capture_error"
	MsgSelectSource    = "select_source"
)

// Outbound message types.
const (
	MsgState       = "state"
	MsgCalibration = "calibration"
	MsgGameOver    = "game_over"
	MsgSource      = "source"
	MsgError       = "error"
)

// ErrUnknownMessage is returned for an envelope type this side does not handle.
var ErrUnknownMessage = errors.New("unknown message type")

// Envelope wraps every message: a type tag and the raw payload.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// Keypoints carries one pose observation. An empty list means the pipeline
// produced nothing for this frame.
type Keypoints struct {
	Points []pose.Keypoint `json:"points"`
}

// Jump is the manual jump button state.
type Jump struct {
	Pressed bool `json:"pressed"`
}

// Visibility reports whether the page is visible.
type Visibility struct {
	Visible bool `json:"visible"`
}

// CalibrateFinish ends calibration; Force accepts a result without jumps.
type CalibrateFinish struct {
	Force bool `json:"force"`
}

// Override installs a fixed baseline without calibrating.
type Override struct {
	Baseline float64 `json:"baseline"`
}

// CaptureError reports that camera capture or inference failed for good.
type CaptureError struct {
	Message string `json:"message"`
}

// Calibration reports calibration progress or its result.
type Calibration struct {
	Phase            string  `json:"phase"`
	Baseline         float64 `json:"baseline,omitempty"`
	AverageAmplitude float64 `json:"averageAmplitude,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// GameOver is sent once when the last life is lost.
type GameOver struct {
	Score int `json:"score"`
}

// Source announces the active jump source. The client sends the same
// payload with MsgSelectSource to switch sources.
type Source struct {
	Source string `json:"source"`
	Reason string `json:"reason,omitempty"`
}

// Error reports a rejected inbound message.
type Error struct {
	Message string `json:"message"`
}
