package encode

import (
	"encoding/binary"
	"math"

	"github.com/logpress/logpress/internal/errors"
)

// Float payloads carry a one byte header, the codec id in the top four
// bits. Integral sequences collapse to zigzag varints; anything else is
// stored as fixed-width little-endian IEEE 754 doubles.
const (
	floatFixed    = 0
	floatIntegral = 1
)

// EncodeFloats encodes values, choosing the integral path when every
// value survives an int64 round trip.
func EncodeFloats(values []float64) []byte {
	integral := true
	for _, f := range values {
		if float64(int64(f)) != f || math.IsInf(f, 0) || math.IsNaN(f) {
			integral = false
			break
		}
	}
	if integral {
		ints := make([]int64, len(values))
		for i, f := range values {
			ints[i] = int64(f)
		}
		return append([]byte{floatIntegral << 4}, EncodeZigzags(ints)...)
	}
	buf := make([]byte, 1, 1+8*len(values))
	buf[0] = floatFixed << 4
	for _, f := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	return buf
}

// DecodeFloats decodes exactly count values.
func DecodeFloats(data []byte, count int) ([]float64, error) {
	if count == 0 {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "float payload empty", nil)
	}
	switch data[0] >> 4 {
	case floatIntegral:
		ints, err := DecodeZigzags(data[1:], count)
		if err != nil {
			return nil, err
		}
		values := make([]float64, count)
		for i, v := range ints {
			values[i] = float64(v)
		}
		return values, nil
	case floatFixed:
		if len(data) < 1+8*count {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "float payload truncated", nil)
		}
		values := make([]float64, count)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[1+8*i:]))
		}
		return values, nil
	}
	return nil, errors.NewEncodingError(errors.CodeUnknownCodec, "unknown float codec header", nil)
}
