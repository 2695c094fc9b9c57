// Package ipc handles communication between the daemon and its consumers
// over a newline-delimited JSON protocol on a Unix socket.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents the type of command.
type CommandType string

const (
	CmdGetSnapshot       CommandType = "getSnapshot"
	CmdSetSampleRate     CommandType = "setSampleRate"
	CmdSetZoomParams     CommandType = "setZoomParams"
	CmdResetCapture      CommandType = "resetCapture"
	CmdGetConfig         CommandType = "getConfig"
	CmdSetConfig         CommandType = "setConfig"
	CmdSubscribeStream   CommandType = "subscribeSnapshot"
	CmdUnsubscribeStream CommandType = "unsubscribeSnapshot"
)

// PushMessage represents a server-initiated message (no request needed).
type PushMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Request represents a client request.
type Request struct {
	Cmd  CommandType     `json:"cmd"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response represents a server response.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SetSampleRateRequest is the data for a setSampleRate command.
type SetSampleRateRequest struct {
	SampleRateHz float64 `json:"sampleRateHz"`
}

// SetZoomParamsRequest is the data for a setZoomParams command.
type SetZoomParamsRequest struct {
	CenterHz  float64 `json:"centerHz"`
	SpanCents float64 `json:"spanCents"`
	Enabled   bool    `json:"enabled"`
}

// ConfigRequest is the data for a setConfig command.
type ConfigRequest struct {
	SampleRateHz  *float64 `json:"sampleRateHz,omitempty"`
	ZoomCenterHz  *float64 `json:"zoomCenterHz,omitempty"`
	ZoomSpanCents *float64 `json:"zoomSpanCents,omitempty"`
	ZoomEnabled   *bool    `json:"zoomEnabled,omitempty"`
}

// ConfigResponse is the response to a getConfig command.
type ConfigResponse struct {
	ConfigPath    string  `json:"configPath"`
	SampleRateHz  float64 `json:"sampleRateHz"`
	RingCapacity  int     `json:"ringCapacity"`
	ZoomCenterHz  float64 `json:"zoomCenterHz"`
	ZoomSpanCents float64 `json:"zoomSpanCents"`
	ZoomEnabled   bool    `json:"zoomEnabled"`
}

// SnapshotResponse is the polled (or pushed) output surface of a completed
// pass, mirroring the engine's consumer contract.
type SnapshotResponse struct {
	Filled bool `json:"filled"`

	RMS            float32 `json:"rms"`
	CoarsePeakBin  int     `json:"coarsePeakBin"`
	CoarsePeakFreq float32 `json:"coarsePeakFreq"`
	CoarsePeakMag  float32 `json:"coarsePeakMag"`

	HarmonicsFreq []float32 `json:"harmonicsFreq"`
	HarmonicsMag  []float32 `json:"harmonicsMag"`

	ZoomCenterHz  float32 `json:"zoomCenterHz"`
	ZoomSpanCents float32 `json:"zoomSpanCents"`

	GoertzelBestCents float32 `json:"goertzelBestCents"`
	GoertzelBestMag   float32 `json:"goertzelBestMag"`
	GoertzelBestFreq  float32 `json:"goertzelBestFreq"`

	Goertzel2BestCents float32 `json:"goertzel2BestCents"`
	Goertzel2BestMag   float32 `json:"goertzel2BestMag"`
	Goertzel2BestFreq  float32 `json:"goertzel2BestFreq"`

	LockIn1Ratio  float32 `json:"lockIn1Ratio"`
	LockIn1Cents  float32 `json:"lockIn1Cents"`
	LockIn1Mag    float32 `json:"lockIn1Mag"`
	LockIn1Zeroed bool    `json:"lockIn1Zeroed"`

	LockIn2Ratio  float32 `json:"lockIn2Ratio"`
	LockIn2Cents  float32 `json:"lockIn2Cents"`
	LockIn2Mag    float32 `json:"lockIn2Mag"`
	LockIn2Zeroed bool    `json:"lockIn2Zeroed"`

	EnvelopePeakIdx int     `json:"envelopePeakIdx"`
	EnvelopePeakVal float32 `json:"envelopePeakVal"`
	EnvelopePeakMs  float32 `json:"envelopePeakMs"`

	StabilityMADPPM   float32 `json:"stabilityMadPpm"`
	StabilityMADCents float32 `json:"stabilityMadCents"`
	StabilityReady    bool    `json:"stabilityReady"`

	CaptureValid   bool    `json:"captureValid"`
	CaptureCents   float32 `json:"captureCents"`
	CaptureRatio   float32 `json:"captureRatio"`
	CaptureMag     float32 `json:"captureMag"`
	CapturePeakMs  float32 `json:"capturePeakMs"`

	LongAverageReady bool    `json:"longAverageReady"`
	LongAverageRatio float32 `json:"longAverageRatio"`
	LongAverageCents float32 `json:"longAverageCents"`

	BestGuessRatio float32 `json:"bestGuessRatio"`
	BestGuessCents float32 `json:"bestGuessCents"`

	HybridRatio float32 `json:"hybridRatio"`
	HybridCents float32 `json:"hybridCents"`

	TotalSamples uint64 `json:"totalSamples"`
}

// EncodeRequest encodes a request to JSON.
func EncodeRequest(req *Request) ([]byte, error) {
	return json.Marshal(req)
}

// DecodeRequest decodes a request from JSON.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response to JSON.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse decodes a response from JSON.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(data interface{}) (*Response, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	return &Response{
		Success: true,
		Data:    rawData,
	}, nil
}

// NewErrorResponse creates an error response.
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}

// NewPushMessage creates a push message for streaming data.
func NewPushMessage(msgType string, data interface{}) ([]byte, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	msg := PushMessage{
		Type: msgType,
		Data: rawData,
	}
	return json.Marshal(msg)
}
