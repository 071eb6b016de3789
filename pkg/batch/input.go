package batch

import (
	"encoding/json"
	"os"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
)

// LoadEntries reads the whole input array into memory.
func LoadEntries(path string) ([]model.Entry, error) {
	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var entries []model.Entry
	if err = json.Unmarshal(bits, &entries); err != nil {
		return nil, utils.WrapIfNotNil(err, path)
	}
	return entries, nil
}
