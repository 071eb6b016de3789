package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
)

const (
	OoklaMarkerEnglish = "Test ID"
	OoklaMarkerThai    = "รหัสการทดสอบ"
)

const promptInstructions = `Task: Extract and format OCR data into a strict JSON structure. Follow these rules exactly:

1. IDENTIFY TEST TYPE:
- If the text contains "` + OoklaMarkerEnglish + `" or "` + OoklaMarkerThai + `" → Ookla format
- If there is no Test ID → Open Signal format

2. STRICT OUTPUT STRUCTURE:
FOR OOKLA:
{
    "ookla": {
        "image_url": "<EXACT_URL_WITH_EXTENSION>",
        "test_id": "<10_DIGIT_ID>",
        "download": <FLOAT_NUMBER>,
        "upload": <FLOAT_NUMBER>,
        "latency": <INTEGER>,
        "latency_download": <INTEGER>,
        "latency_upload": <INTEGER>
    }
}

FOR OPEN SIGNAL:
{
    "open signal": {
        "image_url": "<EXACT_URL_WITH_EXTENSION>",
        "download": <FLOAT_NUMBER>,
        "upload": <FLOAT_NUMBER>,
        "latency": <INTEGER>
    }
}

3. CRITICAL RULES:
- image_url: the input filename, which must end with .png, .jpg, or .jpeg
- test_id: exactly 10 digits (Ookla only)
- All speeds are float numbers
- All latency values are integers
- Use null for any missing value
- No additional fields
- No comments or explanations in the output

4. LATENCY EXTRACTION:
ENGLISH:
- After "RESPONSIVENESS":
  * "Idle" → latency
  * "Download" → latency_download
  * "Upload" → latency_upload

THAI:
- After "การตอบสนอง":
  * "Idle" → latency
  * "ดาวน์โหลด" → latency_download
  * "อัพโหลด" → latency_upload
  * Ignore values next to "ต่ำ" or "สูง"
`

const promptClosing = "Return strictly formatted JSON output only, no explanations."

type promptInput struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// BuildPrompt renders the extraction instructions around the entry's filename and OCR text.
func BuildPrompt(entry model.Entry) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(promptInput{Filename: entry.Filename, Text: entry.Text()})
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	var prompt strings.Builder
	prompt.WriteString(promptInstructions)
	prompt.WriteString("\nInput JSON:\n")
	prompt.WriteString(strings.TrimSpace(buf.String()))
	prompt.WriteString("\n\n")
	prompt.WriteString(promptClosing)
	return prompt.String(), nil
}

// StripCodeFence removes a ```json / ``` opening marker and a ``` closing marker around a reply.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "```json"):
		trimmed = strings.TrimPrefix(trimmed, "```json")
	case strings.HasPrefix(trimmed, "```"):
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
