// Package encode implements the column codecs: varint/zigzag integers,
// run-length encoding, timestamp delta and Gorilla-style bit packing,
// dictionary and token-pool references, and floats. Every codec is an
// exact inverse pair: decode(encode(seq)) == seq.
package encode

import (
	"encoding/binary"

	"github.com/logpress/logpress/internal/errors"
)

// ZigzagEncode maps a signed integer to an unsigned one so that values of
// small magnitude, positive or negative, stay small under varint encoding.
func ZigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// ZigzagDecode inverts ZigzagEncode.
func ZigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// AppendUvarint appends v in varint form.
func AppendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// AppendZigzag appends v zigzag+varint encoded.
func AppendZigzag(dst []byte, v int64) []byte {
	return binary.AppendUvarint(dst, ZigzagEncode(v))
}

// Uvarint reads one varint from data, returning the value and the number
// of bytes consumed.
func Uvarint(data []byte) (uint64, int, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, 0, errors.NewEncodingError(errors.CodeDecodeFailed, "varint truncated or overflows", nil)
	}
	return v, n, nil
}

// EncodeUvarints encodes a sequence of unsigned integers as varints.
func EncodeUvarints(values []uint64) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = binary.AppendUvarint(buf, v)
	}
	return buf
}

// DecodeUvarints decodes exactly count varints from data.
func DecodeUvarints(data []byte, count int) ([]uint64, error) {
	values := make([]uint64, 0, count)
	off := 0
	for len(values) < count {
		v, n, err := Uvarint(data[off:])
		if err != nil {
			return nil, err
		}
		off += n
		values = append(values, v)
	}
	return values, nil
}

// EncodeZigzags encodes a sequence of signed integers as zigzag varints.
func EncodeZigzags(values []int64) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = AppendZigzag(buf, v)
	}
	return buf
}

// DecodeZigzags decodes exactly count zigzag varints from data.
func DecodeZigzags(data []byte, count int) ([]int64, error) {
	us, err := DecodeUvarints(data, count)
	if err != nil {
		return nil, err
	}
	values := make([]int64, len(us))
	for i, u := range us {
		values[i] = ZigzagDecode(u)
	}
	return values, nil
}
