package encode

// EncodeDelta encodes values as a zigzag varint first value followed by
// zigzag varint deltas between consecutive values. Suits monotonically
// increasing sequences like timestamps and row numbers.
func EncodeDelta(values []int64) []byte {
	if len(values) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(values)*2)
	buf = AppendZigzag(buf, values[0])
	for i := 1; i < len(values); i++ {
		buf = AppendZigzag(buf, values[i]-values[i-1])
	}
	return buf
}

// DecodeDelta decodes exactly count delta-encoded values.
func DecodeDelta(data []byte, count int) ([]int64, error) {
	if count == 0 {
		return nil, nil
	}
	deltas, err := DecodeZigzags(data, count)
	if err != nil {
		return nil, err
	}
	values := make([]int64, count)
	values[0] = deltas[0]
	for i := 1; i < count; i++ {
		values[i] = values[i-1] + deltas[i]
	}
	return values, nil
}
