package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Models often print whole numbers as 14.0 and digit-only IDs as bare numbers.
// Records accept both and store the canonical form.

func (r *OoklaRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ImageURL        *string         `json:"image_url"`
		TestID          json.RawMessage `json:"test_id"`
		Download        *float64        `json:"download"`
		Upload          *float64        `json:"upload"`
		Latency         *json.Number    `json:"latency"`
		LatencyDownload *json.Number    `json:"latency_download"`
		LatencyUpload   *json.Number    `json:"latency_upload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	testID, err := decodeTestID(raw.TestID)
	if err != nil {
		return err
	}
	latency, err := wholeNumber("latency", raw.Latency)
	if err != nil {
		return err
	}
	latencyDownload, err := wholeNumber("latency_download", raw.LatencyDownload)
	if err != nil {
		return err
	}
	latencyUpload, err := wholeNumber("latency_upload", raw.LatencyUpload)
	if err != nil {
		return err
	}

	*r = OoklaRecord{
		ImageURL:        raw.ImageURL,
		TestID:          testID,
		Download:        raw.Download,
		Upload:          raw.Upload,
		Latency:         latency,
		LatencyDownload: latencyDownload,
		LatencyUpload:   latencyUpload,
	}
	return nil
}

func (r *OpenSignalRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ImageURL *string      `json:"image_url"`
		Download *float64     `json:"download"`
		Upload   *float64     `json:"upload"`
		Latency  *json.Number `json:"latency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	latency, err := wholeNumber("latency", raw.Latency)
	if err != nil {
		return err
	}

	*r = OpenSignalRecord{
		ImageURL: raw.ImageURL,
		Download: raw.Download,
		Upload:   raw.Upload,
		Latency:  latency,
	}
	return nil
}

// wholeNumber converts n to an int when it has no fractional part.
func wholeNumber(field string, n *json.Number) (*int, error) {
	if n == nil {
		return nil, nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		v := int(i)
		return &v, nil
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return nil, fmt.Errorf("%s: %s is not a whole number", field, n.String())
	}
	v := int(f)
	return &v, nil
}

// decodeTestID accepts a string or a whole number; numbers are rendered as their decimal digits.
func decodeTestID(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, err
		}
		return &id, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("test_id: %w", err)
	}
	if _, err := n.Int64(); err == nil {
		id := n.String()
		return &id, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<53 {
		return nil, fmt.Errorf("test_id: %s is not a whole number", n.String())
	}
	id := strconv.FormatInt(int64(f), 10)
	return &id, nil
}
