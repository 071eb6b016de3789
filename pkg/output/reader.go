package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
)

// ReadSlots parses the array at path element by element. A missing closing bracket or a truncated
// trailing element, as left by a killed run, ends the read; the complete slots before it are returned.
// An empty file has no slots.
func ReadSlots(path string) ([]json.RawMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	token, err := decoder.Token()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.WrapIfNotNil(err, path)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return nil, utils.WrapIfNotNil(fmt.Errorf("%s does not hold a JSON array", path))
	}

	slots := make([]json.RawMessage, 0)
	for decoder.More() {
		var raw json.RawMessage
		err = decoder.Decode(&raw)
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, utils.WrapIfNotNil(err, fmt.Sprintf("%s slot %d", path, len(slots)))
		}
		slots = append(slots, raw)
	}
	return slots, nil
}

// CountSlots reports how many complete slots path already holds; a missing file counts as zero.
func CountSlots(path string) (int, error) {
	slots, err := ReadSlots(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, utils.WrapIfNotNil(err)
	}
	return len(slots), nil
}
