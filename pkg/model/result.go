package model

import (
	"errors"
	"fmt"
)

const (
	ResultKeyOokla      = "ookla"
	ResultKeyOpenSignal = "open signal"
)

// ResultKind names the populated variant of an ExtractionResult.
type ResultKind string

const (
	ResultKindNone       ResultKind = ""
	ResultKindOokla      ResultKind = ResultKeyOokla
	ResultKindOpenSignal ResultKind = ResultKeyOpenSignal
)

// OoklaRecord is a Speedtest by Ookla report, identified by its "Test ID" marker.
type OoklaRecord struct {
	ImageURL        *string  `json:"image_url"`
	TestID          *string  `json:"test_id"`
	Download        *float64 `json:"download"`
	Upload          *float64 `json:"upload"`
	Latency         *int     `json:"latency"`
	LatencyDownload *int     `json:"latency_download"`
	LatencyUpload   *int     `json:"latency_upload"`
}

type OpenSignalRecord struct {
	ImageURL *string  `json:"image_url"`
	Download *float64 `json:"download"`
	Upload   *float64 `json:"upload"`
	Latency  *int     `json:"latency"`
}

// ExtractionResult holds exactly one of the two report variants.
// A nil *ExtractionResult is the persisted null slot for an entry that could not be extracted.
type ExtractionResult struct {
	Ookla      *OoklaRecord      `json:"ookla,omitempty"`
	OpenSignal *OpenSignalRecord `json:"open signal,omitempty"`
}

func (r *ExtractionResult) Kind() ResultKind {
	if r == nil {
		return ResultKindNone
	}
	switch {
	case r.Ookla != nil && r.OpenSignal == nil:
		return ResultKindOokla
	case r.OpenSignal != nil && r.Ookla == nil:
		return ResultKindOpenSignal
	default:
		return ResultKindNone
	}
}

func (r *ExtractionResult) Validate() error {
	if r == nil {
		return errors.New("extraction result is nil")
	}
	if r.Ookla != nil && r.OpenSignal != nil {
		return fmt.Errorf("extraction result has both %q and %q", ResultKeyOokla, ResultKeyOpenSignal)
	}
	if r.Kind() == ResultKindNone {
		return fmt.Errorf("extraction result has neither %q nor %q", ResultKeyOokla, ResultKeyOpenSignal)
	}
	return nil
}

// ImageURL returns the image reference of whichever variant is populated.
func (r *ExtractionResult) ImageURL() string {
	switch r.Kind() {
	case ResultKindOokla:
		if r.Ookla.ImageURL != nil {
			return *r.Ookla.ImageURL
		}
	case ResultKindOpenSignal:
		if r.OpenSignal.ImageURL != nil {
			return *r.OpenSignal.ImageURL
		}
	}
	return ""
}
