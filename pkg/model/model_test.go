package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ModelSuite struct {
	suite.Suite
}

func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelSuite))
}

func (s *ModelSuite) TestEntryDecodesNestedText() {
	var entries []Entry
	err := json.Unmarshal([]byte(`[{"filename":"a.png","data":{"text":"Test ID 1234567890"}}]`), &entries)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("a.png", entries[0].Filename)
	s.Equal("Test ID 1234567890", entries[0].Text())
}

func (s *ModelSuite) TestEntryDecodesFlatText() {
	var entry Entry
	err := json.Unmarshal([]byte(`{"filename":"b.jpg","text":"ดาวน์โหลด 12.5"}`), &entry)
	s.Require().NoError(err)
	s.Equal("b.jpg", entry.Filename)
	s.Equal("ดาวน์โหลด 12.5", entry.Text())
	s.NoError(entry.Validate())
}

func (s *ModelSuite) TestEmptyEntryIsInvalid() {
	var entry Entry
	s.Require().NoError(json.Unmarshal([]byte(`{}`), &entry))
	s.Error(entry.Validate())
}

func (s *ModelSuite) TestResultKind() {
	s.Equal(ResultKindNone, (*ExtractionResult)(nil).Kind())
	s.Equal(ResultKindOokla, (&ExtractionResult{Ookla: &OoklaRecord{}}).Kind())
	s.Equal(ResultKindOpenSignal, (&ExtractionResult{OpenSignal: &OpenSignalRecord{}}).Kind())
	s.Equal(ResultKindNone, (&ExtractionResult{Ookla: &OoklaRecord{}, OpenSignal: &OpenSignalRecord{}}).Kind())
}

func (s *ModelSuite) TestResultValidate() {
	s.NoError((&ExtractionResult{Ookla: &OoklaRecord{}}).Validate())
	s.Error((&ExtractionResult{}).Validate())
	s.Error((&ExtractionResult{Ookla: &OoklaRecord{}, OpenSignal: &OpenSignalRecord{}}).Validate())
}

func (s *ModelSuite) TestResultMarshalsNullFields() {
	url := "c.png"
	download := 20.5
	result := &ExtractionResult{OpenSignal: &OpenSignalRecord{ImageURL: &url, Download: &download}}

	bits, err := json.Marshal(result)
	s.Require().NoError(err)
	s.JSONEq(`{"open signal":{"image_url":"c.png","download":20.5,"upload":null,"latency":null}}`, string(bits))
	s.Equal("c.png", result.ImageURL())
}

func (s *ModelSuite) TestRecordsNormalizeNumbers() {
	var result ExtractionResult
	err := json.Unmarshal([]byte(`{"ookla":{"test_id":9876543210,"latency":9.0,"latency_download":null,"latency_upload":12}}`), &result)
	s.Require().NoError(err)
	s.Equal("9876543210", *result.Ookla.TestID)
	s.Equal(9, *result.Ookla.Latency)
	s.Nil(result.Ookla.LatencyDownload)
	s.Equal(12, *result.Ookla.LatencyUpload)

	err = json.Unmarshal([]byte(`{"ookla":{"test_id":1.2345e9}}`), &result)
	s.Require().NoError(err)
	s.Equal("1234500000", *result.Ookla.TestID)
}

func (s *ModelSuite) TestRecordsRejectFractionalWholeNumbers() {
	var ookla OoklaRecord
	s.Error(json.Unmarshal([]byte(`{"latency":14.5}`), &ookla))
	s.Error(json.Unmarshal([]byte(`{"test_id":12.5}`), &ookla))

	var openSignal OpenSignalRecord
	s.Error(json.Unmarshal([]byte(`{"latency":0.25}`), &openSignal))
}

func (s *ModelSuite) TestResolveGeneratorOpts() {
	cfg := ResolveGeneratorOpts(
		WithModel("gemma2-9b-it"),
		WithTemperature(0),
		WithURL("https://llm.example.com/v1"),
		nil,
	)
	s.Require().NotNil(cfg.Model)
	s.Equal("gemma2-9b-it", *cfg.Model)
	s.Require().NotNil(cfg.Temperature)
	s.Equal(0.0, *cfg.Temperature)
	s.Equal("https://llm.example.com/v1", cfg.URL)
	s.Nil(cfg.MaxTokens)
}
