package encode

import "github.com/logpress/logpress/internal/errors"

// Dictionary codec for low-cardinality string columns. The payload is a
// varint entry count, the entries as length-prefixed bytes in first-seen
// order, then the per-row entry indices run-length encoded.

// EncodeDict dictionary encodes values.
func EncodeDict(values []string) []byte {
	index := make(map[string]uint64)
	var entries []string
	ids := make([]uint64, len(values))
	for i, v := range values {
		id, ok := index[v]
		if !ok {
			id = uint64(len(entries))
			index[v] = id
			entries = append(entries, v)
		}
		ids[i] = id
	}
	buf := AppendUvarint(nil, uint64(len(entries)))
	for _, e := range entries {
		buf = AppendUvarint(buf, uint64(len(e)))
		buf = append(buf, e...)
	}
	return append(buf, EncodeRLE(ids)...)
}

// DecodeDict decodes exactly count dictionary-encoded values.
func DecodeDict(data []byte, count int) ([]string, error) {
	entries, ids, err := decodeDictParts(data, count)
	if err != nil {
		return nil, err
	}
	values := make([]string, count)
	for i, id := range ids {
		if id >= uint64(len(entries)) {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "dictionary index out of range", nil)
		}
		values[i] = entries[id]
	}
	return values, nil
}

// DecodeDictCounts returns the per-entry occurrence counts of a dictionary
// column without materializing the rows.
func DecodeDictCounts(data []byte, count int) (map[string]int, error) {
	entries, ids, err := decodeDictParts(data, count)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(entries))
	for _, id := range ids {
		if id >= uint64(len(entries)) {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "dictionary index out of range", nil)
		}
		counts[entries[id]]++
	}
	return counts, nil
}

func decodeDictParts(data []byte, count int) ([]string, []uint64, error) {
	n, off, err := Uvarint(data)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		l, m, err := Uvarint(data[off:])
		if err != nil {
			return nil, nil, err
		}
		off += m
		if off+int(l) > len(data) {
			return nil, nil, errors.NewEncodingError(errors.CodeDecodeFailed, "dictionary entry truncated", nil)
		}
		entries = append(entries, string(data[off:off+int(l)]))
		off += int(l)
	}
	ids, err := DecodeRLE(data[off:], count)
	if err != nil {
		return nil, nil, err
	}
	return entries, ids, nil
}
