// Package output persists per-entry results as a JSON array that grows one slot at a time
// and can be reopened at any slot offset.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
)

var ErrClosed = errors.New("array writer is closed")

const (
	slotIndent   = "    "
	openBracket  = "["
	closeBracket = "\n]"
	filePerm     = 0o644
)

var nullSlot = json.RawMessage("null")

// ArrayWriter appends slots to an on-disk JSON array. Every write opens, appends to and closes the file,
// so the last completed slot is always on disk.
type ArrayWriter struct {
	path   string
	count  int
	closed bool
}

// Open prepares path for appending at startIndex.
// At 0 the file is recreated. Otherwise the existing array is parsed, cut or null-padded to exactly
// startIndex slots and rewritten, still open for further slots. A missing file yields startIndex null slots.
func Open(path string, startIndex int) (*ArrayWriter, error) {
	if startIndex < 0 {
		return nil, utils.WrapIfNotNil(fmt.Errorf("start index %d is negative", startIndex))
	}

	w := &ArrayWriter{path: path}
	if startIndex == 0 {
		return w, utils.WrapIfNotNil(w.rewrite(nil))
	}

	slots, err := ReadSlots(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slots = nil
	case err != nil:
		return nil, utils.WrapIfNotNil(err)
	}

	if len(slots) > startIndex {
		slots = slots[:startIndex]
	}
	for len(slots) < startIndex {
		slots = append(slots, nullSlot)
	}
	return w, utils.WrapIfNotNil(w.rewrite(slots))
}

func (w *ArrayWriter) Path() string {
	return w.path
}

// Len is the number of slots in the array, including any carried over on resume.
func (w *ArrayWriter) Len() int {
	return w.count
}

// Append writes v as the next slot. A nil value (including a typed nil pointer) is written as null.
func (w *ArrayWriter) Append(v any) error {
	if w.closed {
		return utils.WrapIfNotNil(ErrClosed)
	}

	slot, err := encodeSlot(v)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	var buf bytes.Buffer
	buf.WriteString(w.separator())
	buf.Write(slot)
	if _, err = file.Write(buf.Bytes()); err != nil {
		_ = file.Close()
		return utils.WrapIfNotNil(err)
	}
	if err = file.Close(); err != nil {
		return utils.WrapIfNotNil(err)
	}

	w.count++
	return nil
}

func (w *ArrayWriter) AppendNull() error {
	return w.Append(nil)
}

// Close terminates the array. It is safe to call more than once.
func (w *ArrayWriter) Close() error {
	if w.closed {
		return nil
	}

	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	if _, err = file.WriteString(closeBracket); err != nil {
		_ = file.Close()
		return utils.WrapIfNotNil(err)
	}
	if err = file.Close(); err != nil {
		return utils.WrapIfNotNil(err)
	}

	w.closed = true
	return nil
}

func (w *ArrayWriter) separator() string {
	if w.count == 0 {
		return "\n"
	}
	return ",\n"
}

// rewrite replaces the file with an open array holding slots, via a temp file and rename.
func (w *ArrayWriter) rewrite(slots []json.RawMessage) error {
	var buf bytes.Buffer
	buf.WriteString(openBracket)

	w.count = 0
	for _, raw := range slots {
		slot, err := encodeSlot(raw)
		if err != nil {
			return utils.WrapIfNotNil(err)
		}
		buf.WriteString(w.separator())
		buf.Write(slot)
		w.count++
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return utils.WrapIfNotNil(err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return utils.WrapIfNotNil(err)
	}
	if err = tmp.Close(); err != nil {
		return utils.WrapIfNotNil(err)
	}
	return utils.WrapIfNotNil(os.Rename(tmpName, w.path))
}

// encodeSlot renders one slot pretty-printed with four-space indent and without HTML escaping.
// Re-encoding a slot read back from disk yields the same bytes.
func encodeSlot(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", slotIndent)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
