package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

const resultSchemaURL = "extraction_result.json"

// widenedFieldTypes lists record fields that accept more JSON types than their Go type reflects.
// The record decoders normalize them.
var widenedFieldTypes = map[string][]any{
	"test_id": {"string", "number", "null"},
}

// generateResultSchema reflects model.ExtractionResult into a JSON schema in which every record field may be null
// and no unknown properties are allowed.
func generateResultSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}

	schema := reflector.Reflect(&model.ExtractionResult{})
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var schemaMap map[string]any
	err = json.Unmarshal(schemaJSON, &schemaMap)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	delete(schemaMap, "$id")

	variants, _ := schemaMap["properties"].(map[string]any)
	for _, variant := range variants {
		variantSchema, ok := variant.(map[string]any)
		if !ok {
			continue
		}
		fields, _ := variantSchema["properties"].(map[string]any)
		for name, field := range fields {
			allowNull(field)
			if types, ok := widenedFieldTypes[name]; ok {
				if fieldSchema, isMap := field.(map[string]any); isMap {
					fieldSchema["type"] = types
				}
			}
		}
	}
	return schemaMap, nil
}

func allowNull(field any) {
	fieldSchema, ok := field.(map[string]any)
	if !ok {
		return
	}
	if typeName, isString := fieldSchema["type"].(string); isString {
		fieldSchema["type"] = []any{typeName, "null"}
	}
}

func compileResultSchema() (*validator.Schema, error) {
	schemaMap, err := generateResultSchema()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	schemaBits, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	compiler := validator.NewCompiler()
	err = compiler.AddResource(resultSchemaURL, bytes.NewReader(schemaBits))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	compiled, err := compiler.Compile(resultSchemaURL)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return compiled, nil
}

// parseReply turns raw model output into a validated result.
func parseReply(schema *validator.Schema, reply string) (*model.ExtractionResult, error) {
	content := StripCodeFence(reply)

	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return nil, &ParseError{Text: content, Err: err}
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, &SchemaError{Text: content, Reason: fmt.Sprintf("top-level value is %T, not an object", decoded)}
	}
	if err := checkTopLevelKeys(object); err != nil {
		return nil, &SchemaError{Text: content, Reason: err.Error()}
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, &SchemaError{Text: content, Reason: "record shape", Err: err}
	}

	result := &model.ExtractionResult{}
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return nil, &SchemaError{Text: content, Reason: "record types", Err: err}
	}
	if err := result.Validate(); err != nil {
		return nil, &SchemaError{Text: content, Reason: err.Error()}
	}
	return result, nil
}

func checkTopLevelKeys(object map[string]any) error {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) != 1 {
		return fmt.Errorf("expected exactly one of %q or %q, got keys [%s]",
			model.ResultKeyOokla, model.ResultKeyOpenSignal, strings.Join(keys, ", "))
	}
	if keys[0] != model.ResultKeyOokla && keys[0] != model.ResultKeyOpenSignal {
		return fmt.Errorf("unknown top-level key %q", keys[0])
	}
	if object[keys[0]] == nil {
		return fmt.Errorf("%q is null", keys[0])
	}
	return nil
}
