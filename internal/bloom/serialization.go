package bloom

import (
	"encoding/binary"

	"github.com/golang/snappy"

	"github.com/logpress/logpress/internal/errors"
)

// Serialized layout, little-endian:
//
//	8 bytes numBits | 8 bytes numHashes | 8 bytes count | snappy(bit words)

const headerSize = 24

// Serialize writes the filter with its bit array snappy-compressed.
func (f *Filter) Serialize() []byte {
	bitData := make([]byte, len(f.bits)*8)
	for i, word := range f.bits {
		binary.LittleEndian.PutUint64(bitData[i*8:], word)
	}
	compressed := snappy.Encode(nil, bitData)

	buf := make([]byte, headerSize, headerSize+len(compressed))
	binary.LittleEndian.PutUint64(buf[0:8], f.numBits)
	binary.LittleEndian.PutUint64(buf[8:16], f.numHashes)
	binary.LittleEndian.PutUint64(buf[16:24], f.count)
	return append(buf, compressed...)
}

// Deserialize reconstructs a filter written by Serialize.
func Deserialize(data []byte) (*Filter, error) {
	if len(data) < headerSize {
		return nil, errors.NewEncodingError(errors.CodeTruncated, "bloom filter header truncated", nil)
	}
	numBits := binary.LittleEndian.Uint64(data[0:8])
	numHashes := binary.LittleEndian.Uint64(data[8:16])
	count := binary.LittleEndian.Uint64(data[16:24])
	if numBits == 0 || numHashes == 0 {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "bloom filter has zero geometry", nil)
	}

	bitData, err := snappy.Decode(nil, data[headerSize:])
	if err != nil {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "bloom filter bit array corrupt", err)
	}
	numWords := (numBits + 63) / 64
	if uint64(len(bitData)) < numWords*8 {
		return nil, errors.NewEncodingError(errors.CodeTruncated, "bloom filter bit array truncated", nil)
	}
	bits := make([]uint64, numWords)
	for i := range bits {
		bits[i] = binary.LittleEndian.Uint64(bitData[i*8:])
	}
	return &Filter{
		bits:      bits,
		numBits:   numBits,
		numHashes: numHashes,
		count:     count,
	}, nil
}
