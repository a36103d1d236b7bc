package history

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/cas"
	"github.com/javanhut/arbor/internal/tree"
)

// snapshotVersion is the canonical encoding version.
const snapshotVersion = 1

// Snapshot is an immutable deep copy of every item in a store at one moment.
type Snapshot struct {
	items []tree.Item
}

// NewSnapshot copies items into a new snapshot, keeping their order.
func NewSnapshot(items []tree.Item) Snapshot {
	cp := make([]tree.Item, len(items))
	for i, item := range items {
		cp[i] = item.Clone()
	}
	return Snapshot{items: cp}
}

// Items returns fresh copies of the recorded items in recorded order.
func (s Snapshot) Items() []tree.Item {
	out := make([]tree.Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Len returns the number of recorded items.
func (s Snapshot) Len() int {
	return len(s.items)
}

// Hash returns the BLAKE3 hash of the canonical encoding.
func (s Snapshot) Hash() cas.Hash {
	return cas.SumB3(s.CanonicalBytes())
}

// CanonicalBytes returns the stable byte encoding of the snapshot.
// Two snapshots with the same items in the same order encode identically.
//
// Canonical encoding format (version 1):
//
//	uvarint(1)                  // version
//	uvarint(itemCount)
//	repeat itemCount:
//	  string(id)
//	  string(parent)            // empty for root items
//	  string(label)
//	  uvarint(len(extra))
//	  repeat len(extra):        // sorted by key
//	    string(key)
//	    string(rawJSON)
//
// where string(x) is uvarint(len(x)) followed by the bytes of x. Integer ids
// keep their leading NUL tag, so 1 and "1" hash differently.
func (s Snapshot) CanonicalBytes() []byte {
	var buf bytes.Buffer
	putUvarint(&buf, snapshotVersion)
	putUvarint(&buf, uint64(len(s.items)))

	for _, item := range s.items {
		putString(&buf, string(item.ID))
		putString(&buf, string(item.Parent))
		putString(&buf, item.Label)

		keys := item.ExtraKeys()
		putUvarint(&buf, uint64(len(keys)))
		for _, k := range keys {
			putString(&buf, k)
			putString(&buf, string(item.Extra[k]))
		}
	}
	return buf.Bytes()
}

// ParseSnapshot decodes bytes produced by CanonicalBytes.
func ParseSnapshot(data []byte) (Snapshot, error) {
	r := bytes.NewReader(data)

	version, err := binary.ReadUvarint(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read version: %w", err)
	}
	if version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", version)
	}

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read item count: %w", err)
	}
	if count > uint64(len(data)) {
		return Snapshot{}, fmt.Errorf("item count %d exceeds input size", count)
	}

	items := make([]tree.Item, 0, count)
	for i := uint64(0); i < count; i++ {
		var item tree.Item
		id, err := readString(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("item %d id: %w", i, err)
		}
		parent, err := readString(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("item %d parent: %w", i, err)
		}
		label, err := readString(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("item %d label: %w", i, err)
		}
		item.ID, item.Parent, item.Label = tree.ID(id), tree.ID(parent), label

		extraCount, err := binary.ReadUvarint(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("item %d payload count: %w", i, err)
		}
		for j := uint64(0); j < extraCount; j++ {
			key, err := readString(r)
			if err != nil {
				return Snapshot{}, fmt.Errorf("item %d payload key: %w", i, err)
			}
			value, err := readString(r)
			if err != nil {
				return Snapshot{}, fmt.Errorf("item %d payload %q: %w", i, key, err)
			}
			if item.Extra == nil {
				item.Extra = make(map[string]json.RawMessage)
			}
			item.Extra[key] = json.RawMessage(value)
		}
		items = append(items, item)
	}

	if r.Len() != 0 {
		return Snapshot{}, fmt.Errorf("%d trailing bytes after snapshot", r.Len())
	}
	return Snapshot{items: items}, nil
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putString(buf *bytes.Buffer, s string) {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > uint64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
