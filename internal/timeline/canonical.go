package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns the NFC normalization of user-supplied text.
// All subtitle text passes through here before entering a document, so two
// documents that render identically also compare byte-identical in their
// canonical form.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// MarshalCanonical produces the canonical JSON form of a document.
// This is the ONLY serialization used for persistence, structural equality,
// and golden comparison. Field order is fixed by the struct definitions and
// HTML escaping is disabled so subtitle text round-trips unmangled.
func MarshalCanonical(d *Document) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("marshal canonical: nil document")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("marshal canonical: %w", err)
	}
	// Encoder appends a trailing newline; canonical form has none.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalDocument decodes a canonical JSON document.
func UnmarshalDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &d, nil
}

// Equal reports structural equality of two documents by comparing their
// canonical forms. Large documents make field-by-field comparison easy to
// get wrong; byte comparison of the canonical form cannot drift from the
// persisted representation.
func Equal(a, b *Document) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	ab, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
