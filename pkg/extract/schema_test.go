package extract

import (
	"encoding/json"
	"testing"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/suite"
)

type SchemaSuite struct {
	suite.Suite
	schema *validator.Schema
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaSuite))
}

func (s *SchemaSuite) SetupSuite() {
	schema, err := compileResultSchema()
	s.Require().NoError(err)
	s.schema = schema
}

func (s *SchemaSuite) TestGeneratedSchemaAllowsNullLeaves() {
	schemaMap, err := generateResultSchema()
	s.Require().NoError(err)

	properties := schemaMap["properties"].(map[string]any)
	s.Contains(properties, model.ResultKeyOokla)
	s.Contains(properties, model.ResultKeyOpenSignal)

	ookla := properties[model.ResultKeyOokla].(map[string]any)
	download := ookla["properties"].(map[string]any)["download"].(map[string]any)
	s.Equal([]any{"number", "null"}, download["type"])
	s.Equal(false, ookla["additionalProperties"])
	s.NotContains(schemaMap, "$id")
}

func (s *SchemaSuite) TestParsesOpenSignal() {
	result, err := parseReply(s.schema, `{"open signal":{"image_url":"b.jpg","download":31.4,"upload":null,"latency":22}}`)
	s.Require().NoError(err)
	s.Equal(model.ResultKindOpenSignal, result.Kind())
	s.Equal("b.jpg", result.ImageURL())
	s.Nil(result.OpenSignal.Upload)
}

func (s *SchemaSuite) TestMissingFieldsAreAllowed() {
	result, err := parseReply(s.schema, `{"ookla":{"test_id":"0123456789"}}`)
	s.Require().NoError(err)
	s.Equal("0123456789", *result.Ookla.TestID)
	s.Nil(result.Ookla.ImageURL)
}

func (s *SchemaSuite) TestWholeNumberFloatsAreAccepted() {
	result, err := parseReply(s.schema, `{"ookla":{"image_url":"a.png","test_id":"1234567890","download":55.2,"upload":10.1,"latency":14.0,"latency_download":21.0,"latency_upload":35.0}}`)
	s.Require().NoError(err)
	s.Equal(14, *result.Ookla.Latency)
	s.Equal(21, *result.Ookla.LatencyDownload)
	s.Equal(35, *result.Ookla.LatencyUpload)

	result, err = parseReply(s.schema, `{"open signal":{"image_url":"b.jpg","download":31.4,"upload":8.0,"latency":22.0}}`)
	s.Require().NoError(err)
	s.Equal(22, *result.OpenSignal.Latency)
}

func (s *SchemaSuite) TestNumericTestIDBecomesString() {
	result, err := parseReply(s.schema, `{"ookla":{"image_url":"a.png","test_id":1234567890,"download":55.2,"upload":10.1,"latency":14,"latency_download":null,"latency_upload":null}}`)
	s.Require().NoError(err)
	s.Require().NotNil(result.Ookla.TestID)
	s.Equal("1234567890", *result.Ookla.TestID)

	slot, err := json.Marshal(result)
	s.Require().NoError(err)
	s.Contains(string(slot), `"test_id":"1234567890"`)
}

func (s *SchemaSuite) TestRejections() {
	cases := map[string]string{
		"not an object":      `[1, 2]`,
		"no known key":       `{"result":{}}`,
		"both variants":      `{"ookla":{},"open signal":{}}`,
		"extra top key":      `{"ookla":{},"note":"x"}`,
		"null variant":       `{"ookla":null}`,
		"extra record key":   `{"ookla":{"download":1.0,"jitter":3}}`,
		"wrong field type":   `{"open signal":{"download":"fast"}}`,
		"fractional latency": `{"open signal":{"latency":14.5}}`,
		"fractional test id": `{"ookla":{"test_id":12.5}}`,
	}
	for name, reply := range cases {
		result, err := parseReply(s.schema, reply)
		s.Nil(result, name)
		s.ErrorIs(err, ErrSchema, name)

		var schemaErr *SchemaError
		s.Require().ErrorAs(err, &schemaErr, name)
		s.NotEmpty(schemaErr.Text, name)
	}
}

func (s *SchemaSuite) TestParseErrorKeepsText() {
	_, err := parseReply(s.schema, "```json\n{\"ookla\": \n```")
	s.Require().ErrorIs(err, ErrParse)

	var parseErr *ParseError
	s.Require().ErrorAs(err, &parseErr)
	s.Equal(`{"ookla":`, parseErr.Text)
}
