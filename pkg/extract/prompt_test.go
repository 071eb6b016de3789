package extract

import (
	"strings"
	"testing"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/stretchr/testify/suite"
)

type PromptSuite struct {
	suite.Suite
}

func TestPromptSuite(t *testing.T) {
	suite.Run(t, new(PromptSuite))
}

func (s *PromptSuite) TestBuildPromptEmbedsEntry() {
	prompt, err := BuildPrompt(model.Entry{
		Filename: "shot<1>.png",
		Data:     model.EntryData{Text: "รหัสการทดสอบ 1234567890 & ดาวน์โหลด 88.1"},
	})
	s.Require().NoError(err)

	s.Contains(prompt, `{"filename":"shot<1>.png","text":"รหัสการทดสอบ 1234567890 & ดาวน์โหลด 88.1"}`)
	s.Contains(prompt, OoklaMarkerEnglish)
	s.Contains(prompt, `"open signal"`)
	s.True(strings.HasSuffix(prompt, promptClosing))
}

func (s *PromptSuite) TestStripCodeFence() {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"{\"a\":1}\n```":          `{"a":1}`,
		"":                        "",
	}
	for input, expected := range cases {
		s.Equal(expected, StripCodeFence(input), input)
	}
}
