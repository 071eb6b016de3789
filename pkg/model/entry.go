package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// Entry is one OCR-extracted record from the input batch.
type Entry struct {
	Filename string    `json:"filename"`
	Data     EntryData `json:"data"`
}

type EntryData struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts both the nested {"data":{"text":...}} layout and a flat {"text":...} field.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Filename string     `json:"filename"`
		Data     *EntryData `json:"data"`
		Text     *string    `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Filename = raw.Filename
	e.Data = EntryData{}
	switch {
	case raw.Data != nil:
		e.Data = *raw.Data
	case raw.Text != nil:
		e.Data.Text = *raw.Text
	}
	return nil
}

func (e Entry) Text() string {
	return e.Data.Text
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Filename) == "" && strings.TrimSpace(e.Data.Text) == "" {
		return errors.New("entry has neither filename nor text")
	}
	return nil
}
