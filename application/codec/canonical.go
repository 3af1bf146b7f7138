package codec

import (
	"bytes"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// canonicalize rewrites an encoded value so that every map, at any depth,
// lists its entries in sorted key order. String keys sort lexically; other
// keys sort by their encoding. Scalars and extensions are copied as is.
func canonicalize(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data))
	if err := canonicalValue(msgpack.NewDecoder(bytes.NewReader(data)), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func canonicalValue(dec *msgpack.Decoder, out *bytes.Buffer) error {
	c, err := dec.PeekCode()
	if err != nil {
		return err
	}

	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		return canonicalMap(dec, out)
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if err := msgpack.NewEncoder(out).EncodeArrayLen(n); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := canonicalValue(dec, out); err != nil {
				return err
			}
		}
		return nil
	default:
		raw, err := dec.DecodeRaw()
		if err != nil {
			return err
		}
		out.Write(raw)
		return nil
	}
}

type mapEntry struct {
	order string
	key   []byte
	value []byte
}

func canonicalMap(dec *msgpack.Decoder, out *bytes.Buffer) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}

	entries := make([]mapEntry, n)
	for i := range entries {
		var k, v bytes.Buffer
		if err := canonicalValue(dec, &k); err != nil {
			return err
		}
		if err := canonicalValue(dec, &v); err != nil {
			return err
		}
		entries[i] = mapEntry{order: keyOrder(k.Bytes()), key: k.Bytes(), value: v.Bytes()}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})

	if err := msgpack.NewEncoder(out).EncodeMapLen(n); err != nil {
		return err
	}
	for _, e := range entries {
		out.Write(e.key)
		out.Write(e.value)
	}
	return nil
}

func keyOrder(key []byte) string {
	if len(key) > 0 && msgpcode.IsString(key[0]) {
		var s string
		if err := msgpack.Unmarshal(key, &s); err == nil {
			return s
		}
	}
	return string(key)
}
