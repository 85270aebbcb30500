package encode

// Run-length post-pass over a varint stream. The stream is a series of
// groups, each introduced by a header varint h:
//
//	h&1 == 1: a run of h>>1 copies of the single value varint that follows
//	h&1 == 0: a literal group of h>>1 value varints
//
// Runs shorter than minRunLength are folded into the surrounding literal
// group, since the run framing would cost more than it saves.

const minRunLength = 3

// EncodeRLE run-length encodes values.
func EncodeRLE(values []uint64) []byte {
	buf := make([]byte, 0, len(values))
	i := 0
	litStart := 0
	flushLiterals := func(end int) {
		if end > litStart {
			buf = AppendUvarint(buf, uint64(end-litStart)<<1)
			for _, v := range values[litStart:end] {
				buf = AppendUvarint(buf, v)
			}
		}
	}
	for i < len(values) {
		j := i + 1
		for j < len(values) && values[j] == values[i] {
			j++
		}
		if j-i >= minRunLength {
			flushLiterals(i)
			buf = AppendUvarint(buf, uint64(j-i)<<1|1)
			buf = AppendUvarint(buf, values[i])
			litStart = j
		}
		i = j
	}
	flushLiterals(len(values))
	return buf
}

// DecodeRLE decodes exactly count values from an RLE stream.
func DecodeRLE(data []byte, count int) ([]uint64, error) {
	values := make([]uint64, 0, count)
	off := 0
	for len(values) < count {
		h, n, err := Uvarint(data[off:])
		if err != nil {
			return nil, err
		}
		off += n
		groupLen := int(h >> 1)
		if h&1 == 1 {
			v, n, err := Uvarint(data[off:])
			if err != nil {
				return nil, err
			}
			off += n
			for k := 0; k < groupLen; k++ {
				values = append(values, v)
			}
			continue
		}
		for k := 0; k < groupLen; k++ {
			v, n, err := Uvarint(data[off:])
			if err != nil {
				return nil, err
			}
			off += n
			values = append(values, v)
		}
	}
	return values[:count], nil
}
