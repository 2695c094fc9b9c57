package ipc

import (
	"encoding/json"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	req := &Request{Cmd: CmdGetSnapshot}

	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}

	if decoded["cmd"] != "getSnapshot" {
		t.Errorf("Expected cmd 'getSnapshot', got '%v'", decoded["cmd"])
	}
}

func TestDecodeRequest(t *testing.T) {
	data := []byte(`{"cmd":"resetCapture"}`)

	req, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}

	if req.Cmd != CmdResetCapture {
		t.Errorf("Expected cmd 'resetCapture', got '%s'", req.Cmd)
	}
}

func TestDecodeRequestWithData(t *testing.T) {
	data := []byte(`{"cmd":"setSampleRate","data":{"sampleRateHz":44100}}`)

	req, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}

	if req.Cmd != CmdSetSampleRate {
		t.Errorf("Expected cmd 'setSampleRate', got '%s'", req.Cmd)
	}

	var rateReq SetSampleRateRequest
	if err := json.Unmarshal(req.Data, &rateReq); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}

	if rateReq.SampleRateHz != 44100 {
		t.Errorf("Expected sampleRateHz 44100, got %v", rateReq.SampleRateHz)
	}
}

func TestDecodeRequestInvalid(t *testing.T) {
	data := []byte(`not valid json`)

	_, err := DecodeRequest(data)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestEncodeResponse(t *testing.T) {
	resp := &Response{Success: true}

	data, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}

	if decoded["success"] != true {
		t.Errorf("Expected success true, got %v", decoded["success"])
	}
}

func TestDecodeResponse(t *testing.T) {
	data := []byte(`{"success":true,"data":{"filled":true}}`)

	resp, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}

	if !resp.Success {
		t.Error("Expected success to be true")
	}

	if resp.Data == nil {
		t.Error("Expected data to be non-nil")
	}
}

func TestDecodeResponseError(t *testing.T) {
	data := []byte(`{"success":false,"error":"engine not ready"}`)

	resp, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}

	if resp.Success {
		t.Error("Expected success to be false")
	}

	if resp.Error != "engine not ready" {
		t.Errorf("Expected error 'engine not ready', got '%s'", resp.Error)
	}
}

func TestNewSuccessResponse(t *testing.T) {
	snap := SnapshotResponse{
		Filled:         true,
		RMS:            0.42,
		CoarsePeakFreq: 440.0,
		TotalSamples:   65536,
	}

	resp, err := NewSuccessResponse(snap)
	if err != nil {
		t.Fatalf("NewSuccessResponse failed: %v", err)
	}

	if !resp.Success {
		t.Error("Expected success to be true")
	}

	if resp.Data == nil {
		t.Error("Expected data to be non-nil")
	}

	var decoded SnapshotResponse
	if err := json.Unmarshal(resp.Data, &decoded); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}

	if decoded.CoarsePeakFreq != 440.0 {
		t.Errorf("Expected coarsePeakFreq 440.0, got %v", decoded.CoarsePeakFreq)
	}
}

func TestNewSuccessResponseNilData(t *testing.T) {
	resp, err := NewSuccessResponse(nil)
	if err != nil {
		t.Fatalf("NewSuccessResponse failed: %v", err)
	}

	if !resp.Success {
		t.Error("Expected success to be true")
	}

	if resp.Data != nil {
		t.Error("Expected data to be nil")
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("something went wrong")

	if resp.Success {
		t.Error("Expected success to be false")
	}

	if resp.Error != "something went wrong" {
		t.Errorf("Expected error 'something went wrong', got '%s'", resp.Error)
	}
}

func TestCommandTypes(t *testing.T) {
	commands := []CommandType{
		CmdGetSnapshot,
		CmdSetSampleRate,
		CmdSetZoomParams,
		CmdResetCapture,
		CmdGetConfig,
		CmdSetConfig,
		CmdSubscribeStream,
		CmdUnsubscribeStream,
	}

	for _, cmd := range commands {
		req := &Request{Cmd: cmd}
		data, err := EncodeRequest(req)
		if err != nil {
			t.Errorf("Failed to encode %s: %v", cmd, err)
		}

		decoded, err := DecodeRequest(data)
		if err != nil {
			t.Errorf("Failed to decode %s: %v", cmd, err)
		}

		if decoded.Cmd != cmd {
			t.Errorf("Expected %s, got %s", cmd, decoded.Cmd)
		}
	}
}

func TestSetZoomParamsRequest(t *testing.T) {
	zoomReq := SetZoomParamsRequest{
		CenterHz:  440.0,
		SpanCents: 120.0,
		Enabled:   true,
	}

	data, err := json.Marshal(zoomReq)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded SetZoomParamsRequest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.CenterHz != 440.0 {
		t.Errorf("Expected centerHz 440.0, got %v", decoded.CenterHz)
	}

	if !decoded.Enabled {
		t.Error("Expected Enabled to be true")
	}
}

func TestConfigRequestPartialUpdate(t *testing.T) {
	rate := 44100.0
	cfgReq := ConfigRequest{SampleRateHz: &rate}

	data, err := json.Marshal(cfgReq)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded ConfigRequest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.SampleRateHz == nil || *decoded.SampleRateHz != 44100.0 {
		t.Errorf("Expected sampleRateHz 44100.0, got %v", decoded.SampleRateHz)
	}

	if decoded.ZoomCenterHz != nil {
		t.Error("Expected zoomCenterHz to be nil when omitted")
	}
}

func TestSnapshotResponseRoundTrip(t *testing.T) {
	snap := SnapshotResponse{
		Filled:            true,
		HarmonicsFreq:     []float32{880, 1320, 1760, 2640, 3520},
		HarmonicsMag:      []float32{1, 0.5, 0.25, 0.1, 0.05},
		CaptureValid:      true,
		CaptureCents:      -3.2,
		LongAverageReady:  false,
		HybridRatio:       1.0001,
		TotalSamples:      131072,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded SnapshotResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(decoded.HarmonicsFreq) != 5 {
		t.Errorf("Expected 5 harmonic frequencies, got %d", len(decoded.HarmonicsFreq))
	}

	if decoded.CaptureCents != -3.2 {
		t.Errorf("Expected captureCents -3.2, got %v", decoded.CaptureCents)
	}

	if decoded.TotalSamples != 131072 {
		t.Errorf("Expected totalSamples 131072, got %d", decoded.TotalSamples)
	}
}
