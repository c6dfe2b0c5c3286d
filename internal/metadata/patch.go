package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileName is the descriptor file patched at the project root.
const FileName = "package.json"

// NameField is the top-level key overwritten with the project name.
const NameField = "name"

// indent is the per-level indentation of rewritten files.
const indent = "  "

// ErrNotObject is returned when the descriptor's top-level value is not a
// JSON object.
var ErrNotObject = errors.New("top-level value is not a JSON object")

// PatchResult describes the outcome of PatchFile.
type PatchResult struct {
	Path         string
	PreviousName string
	// Skipped is true when no descriptor exists in the directory.
	Skipped bool
}

// member is one top-level key with its undecoded value.
type member struct {
	key   string
	value json.RawMessage
}

// PatchFile rewrites the name field of dir/package.json. A missing file is
// not an error: the result is marked Skipped.
func PatchFile(dir, name string) (*PatchResult, error) {
	path := filepath.Join(dir, FileName)
	result := &PatchResult{Path: path}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	patched, previous, err := SetName(data, name)
	if err != nil {
		return nil, fmt.Errorf("patching %s: %w", path, err)
	}
	result.PreviousName = previous

	if err := os.WriteFile(path, patched, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return result, nil
}

// SetName returns data with its top-level name field set to name, formatted
// with two-space indentation and a trailing newline. It also returns the
// previous name when it was a string. A missing name field is appended.
func SetName(data []byte, name string) ([]byte, string, error) {
	members, err := decodeObject(data)
	if err != nil {
		return nil, "", err
	}

	encoded, err := marshalString(name)
	if err != nil {
		return nil, "", err
	}

	previous := ""
	replaced := false
	for i := range members {
		if members[i].key != NameField {
			continue
		}
		_ = json.Unmarshal(members[i].value, &previous)
		members[i].value = encoded
		replaced = true
		break
	}
	if !replaced {
		members = append(members, member{key: NameField, value: encoded})
	}

	out, err := encodeObject(members)
	if err != nil {
		return nil, "", err
	}
	return out, previous, nil
}

// Name returns the top-level name field of data, or "" when absent or not a
// string.
func Name(data []byte) (string, error) {
	members, err := decodeObject(data)
	if err != nil {
		return "", err
	}
	for _, m := range members {
		if m.key == NameField {
			var s string
			_ = json.Unmarshal(m.value, &s)
			return s, nil
		}
	}
	return "", nil
}

// utf8BOM is dropped from input; rewritten files never carry it.
var utf8BOM = []byte("\xef\xbb\xbf")

// decodeObject splits a JSON object into its top-level members in document
// order. A repeated key keeps its first position and its last value.
func decodeObject(data []byte) ([]member, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	var members []member
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing JSON: unexpected token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parsing JSON value for %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			members[i].value = value
			continue
		}
		index[key] = len(members)
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parsing JSON: unexpected data after top-level object")
	}
	return members, nil
}

// encodeObject writes members back as an indented JSON object.
func encodeObject(members []member) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshalString(m.key)
		if err != nil {
			return nil, err
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(m.value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return nil, fmt.Errorf("formatting JSON: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding %q: %w", s, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
