// Package tree implements the indexed item store behind arbor.
//
// The store keeps every item in an id-keyed map and maintains a derived
// parent -> children index next to it. All parent link changes funnel through
// a single relink path so the two never drift apart.
//
// The package provides:
// - Item records with an opaque, verbatim payload
// - O(1) lookup, direct children, descendants and ancestor chains
// - Add (label checked), remove with descendants, update/reparent
// - Trusted bulk replacement used when restoring history snapshots
package tree

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ID identifies an item. Ids come as JSON strings or JSON integers and the
// two kinds never compare equal: 1 and "1" are different items.
//
// Integer ids are held behind intTag, a byte no string id may start with.
// Use IntID to build one and String to print any id.
type ID string

// Root is the null parent marker. It is never a valid item id.
const Root ID = ""

const intTag = "\x00"

// IntID returns the id for the JSON integer n.
func IntID(n int64) ID {
	return ID(intTag + strconv.FormatInt(n, 10))
}

// Int returns the integer behind an integer id.
func (id ID) Int() (int64, bool) {
	if !id.IsInt() {
		return 0, false
	}
	n, err := strconv.ParseInt(string(id[len(intTag):]), 10, 64)
	return n, err == nil
}

// IsInt reports whether the id was given as a JSON integer.
func (id ID) IsInt() bool {
	return strings.HasPrefix(string(id), intTag)
}

// String returns the id as a user types it.
func (id ID) String() string {
	if id.IsInt() {
		return string(id[len(intTag):])
	}
	return string(id)
}

// UnmarshalJSON accepts a string, an integer or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = Root
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.HasPrefix(s, intTag) {
			return fmt.Errorf("invalid id %s: must not start with a NUL character", data)
		}
		*id = ID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: must be a string or an integer", data)
	}
	*id = IntID(n)
	return nil
}

// MarshalJSON encodes Root as null and integer ids as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == Root {
		return []byte("null"), nil
	}
	if n, ok := id.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// Item is a single node record.
type Item struct {
	ID     ID
	Parent ID // Root when the item sits at the top of the forest
	Label  string

	// Extra carries every payload field other than id/parent/label.
	// The store never looks inside it.
	Extra map[string]json.RawMessage
}

// IsRoot reports whether the item has no parent.
func (i Item) IsRoot() bool {
	return i.Parent == Root
}

// Clone creates a deep copy of the item
func (i Item) Clone() Item {
	clone := i
	if i.Extra != nil {
		clone.Extra = make(map[string]json.RawMessage, len(i.Extra))
		for k, v := range i.Extra {
			if v == nil {
				clone.Extra[k] = nil
				continue
			}
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			clone.Extra[k] = cp
		}
	}
	return clone
}

// ExtraKeys returns the payload keys in sorted order.
func (i Item) ExtraKeys() []string {
	keys := make([]string, 0, len(i.Extra))
	for k := range i.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var reservedKeys = map[string]bool{"id": true, "parent": true, "label": true}

// MarshalJSON flattens the payload next to id, parent and label.
func (i Item) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(i.Extra)+3)
	for k, v := range i.Extra {
		if reservedKeys[k] {
			continue
		}
		fields[k] = v
	}
	var err error
	if fields["id"], err = json.Marshal(i.ID); err != nil {
		return nil, err
	}
	if fields["parent"], err = json.Marshal(i.Parent); err != nil {
		return nil, err
	}
	if fields["label"], err = json.Marshal(i.Label); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads id, parent and label and keeps everything else as payload.
func (i *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var item Item
	raw, ok := fields["id"]
	if !ok {
		return fmt.Errorf("item is missing an id")
	}
	if err := json.Unmarshal(raw, &item.ID); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	if item.ID == Root {
		return fmt.Errorf("item id cannot be null or empty")
	}
	if raw, ok := fields["parent"]; ok {
		if err := json.Unmarshal(raw, &item.Parent); err != nil {
			return fmt.Errorf("decode parent of %s: %w", item.ID, err)
		}
	}
	if raw, ok := fields["label"]; ok {
		if err := json.Unmarshal(raw, &item.Label); err != nil {
			return fmt.Errorf("decode label of %s: %w", item.ID, err)
		}
	}

	for k, v := range fields {
		if reservedKeys[k] {
			continue
		}
		if item.Extra == nil {
			item.Extra = make(map[string]json.RawMessage)
		}
		item.Extra[k] = v
	}

	*i = item
	return nil
}
