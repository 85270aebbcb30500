package encode

import (
	"bytes"

	"github.com/dgryski/go-bitstream"

	"github.com/logpress/logpress/internal/errors"
)

// Gorilla-style delta-of-delta packing for nearly regular sequences.
// The first value is written as 64 raw bits, the first delta as 64 raw
// bits, and each subsequent delta-of-delta picks the smallest bucket that
// holds it:
//
//	0                  dod == 0
//	10   + 7 bits      dod in [-64, 63]
//	110  + 9 bits      dod in [-256, 255]
//	1110 + 12 bits     dod in [-2048, 2047]
//	11110 + 32 bits    dod in [-2^31, 2^31-1]
//	11111 + 64 bits    anything else
//
// Bucketed values are written in two's complement truncated to the bucket
// width and sign-extended on read.

var dodBuckets = []struct {
	prefix     uint64
	prefixBits int
	valueBits  int
}{
	{0x2, 2, 7},   // 10
	{0x6, 3, 9},   // 110
	{0xe, 4, 12},  // 1110
	{0x1e, 5, 32}, // 11110
}

// EncodeGorilla bit-packs values by delta-of-delta.
func EncodeGorilla(values []int64) []byte {
	if len(values) == 0 {
		return nil
	}
	var buf bytes.Buffer
	w := bitstream.NewWriter(&buf)
	w.WriteBits(uint64(values[0]), 64)
	if len(values) > 1 {
		prevDelta := values[1] - values[0]
		w.WriteBits(uint64(prevDelta), 64)
		for i := 2; i < len(values); i++ {
			delta := values[i] - values[i-1]
			dod := delta - prevDelta
			prevDelta = delta
			writeDoD(w, dod)
		}
	}
	w.Flush(bitstream.Zero)
	return buf.Bytes()
}

func writeDoD(w *bitstream.BitWriter, dod int64) {
	if dod == 0 {
		w.WriteBit(bitstream.Zero)
		return
	}
	for _, b := range dodBuckets {
		limit := int64(1) << (b.valueBits - 1)
		if dod >= -limit && dod < limit {
			w.WriteBits(b.prefix, b.prefixBits)
			w.WriteBits(uint64(dod)&((1<<b.valueBits)-1), b.valueBits)
			return
		}
	}
	w.WriteBits(0x1f, 5) // 11111
	w.WriteBits(uint64(dod), 64)
}

// DecodeGorilla decodes exactly count values from a Gorilla stream.
func DecodeGorilla(data []byte, count int) ([]int64, error) {
	if count == 0 {
		return nil, nil
	}
	r := bitstream.NewReader(bytes.NewReader(data))
	first, err := r.ReadBits(64)
	if err != nil {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "gorilla stream truncated", err)
	}
	values := make([]int64, 0, count)
	values = append(values, int64(first))
	if count == 1 {
		return values, nil
	}
	rawDelta, err := r.ReadBits(64)
	if err != nil {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "gorilla stream truncated", err)
	}
	delta := int64(rawDelta)
	values = append(values, values[0]+delta)
	for len(values) < count {
		dod, err := readDoD(r)
		if err != nil {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "gorilla stream truncated", err)
		}
		delta += dod
		values = append(values, values[len(values)-1]+delta)
	}
	return values, nil
}

func readDoD(r *bitstream.BitReader) (int64, error) {
	bit, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if bit == bitstream.Zero {
		return 0, nil
	}
	for _, b := range dodBuckets {
		bit, err = r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == bitstream.Zero {
			raw, err := r.ReadBits(b.valueBits)
			if err != nil {
				return 0, err
			}
			// Sign-extend from the bucket width.
			if raw&(1<<(b.valueBits-1)) != 0 {
				raw |= ^uint64(0) << b.valueBits
			}
			return int64(raw), nil
		}
	}
	raw, err := r.ReadBits(64)
	if err != nil {
		return 0, err
	}
	return int64(raw), nil
}
