package encode

import (
	"strconv"

	"github.com/logpress/logpress/internal/errors"
	"github.com/logpress/logpress/pkg/types"
)

// Codec identifies how a column payload is encoded.
type Codec uint8

const (
	CodecDelta Codec = iota + 1
	CodecGorilla
	CodecVarint
	CodecDict
	CodecPool
	CodecFloat
	CodecTimestampDelta
	CodecTimestampGorilla
)

// String returns the codec name used in metadata and logs.
func (c Codec) String() string {
	switch c {
	case CodecDelta:
		return "delta"
	case CodecGorilla:
		return "gorilla"
	case CodecVarint:
		return "varint"
	case CodecDict:
		return "dict"
	case CodecPool:
		return "pool"
	case CodecFloat:
		return "float"
	case CodecTimestampDelta:
		return "ts_delta"
	case CodecTimestampGorilla:
		return "ts_gorilla"
	}
	return "unknown"
}

// EncodedColumn is one slot's values encoded under a single codec. The
// payload layout is:
//
//	uvarint primaryLen | primary bytes | uvarint exceptionCount |
//	exceptionCount x (uvarint rowIndex, uvarint rawLen, raw bytes)
//
// Exception rows hold values the codec could not represent; they are
// excluded from the primary section and spliced back in on decode.
type EncodedColumn struct {
	Codec      Codec  `json:"codec"`
	ValueCount int    `json:"value_count"`
	Payload    []byte `json:"-"`
}

type exception struct {
	row int
	raw string
}

// Encoder turns slot value columns into EncodedColumns. String-heavy
// types intern through the shared container pool.
type Encoder struct {
	pool *Pool
}

// NewEncoder returns an encoder writing pool references into pool.
func NewEncoder(pool *Pool) *Encoder {
	return &Encoder{pool: pool}
}

// Encode picks a codec for the slot type and encodes values under it.
// Numeric codecs demote to the pool codec when fewer than half the
// values parse, so a mislabeled column cannot explode the exception list.
func (e *Encoder) Encode(slotType types.SemanticType, values []string) (EncodedColumn, error) {
	switch slotType {
	case types.TypeTimestamp:
		return e.encodeTimestamps(values), nil
	case types.TypeSeverity, types.TypeStatus:
		return EncodedColumn{
			Codec:      CodecDict,
			ValueCount: len(values),
			Payload:    frame(EncodeDict(values), nil),
		}, nil
	case types.TypePort, types.TypeProcessID, types.TypeErrorCode, types.TypeUserID:
		return e.encodeInts(values), nil
	case types.TypeMetric:
		return e.encodeMetrics(values), nil
	default:
		return e.encodePool(values), nil
	}
}

// Decode reverses Encode, reproducing the original value strings.
func (e *Encoder) Decode(col EncodedColumn) ([]string, error) {
	primary, excs, err := deframe(col.Payload)
	if err != nil {
		return nil, err
	}
	plainCount := col.ValueCount - len(excs)
	var plain []string
	switch col.Codec {
	case CodecTimestampDelta, CodecTimestampGorilla:
		plain, err = decodeTimestampPrimary(col.Codec, primary, plainCount)
	case CodecVarint:
		plain, err = decodeIntPrimary(primary, plainCount)
	case CodecFloat:
		plain, err = decodeFloatPrimary(primary, plainCount)
	case CodecDict:
		plain, err = DecodeDict(primary, plainCount)
	case CodecPool:
		plain, err = e.decodePoolPrimary(primary, plainCount)
	case CodecDelta, CodecGorilla:
		ints, derr := decodeIntPrimaryRaw(col.Codec, primary, plainCount)
		if derr != nil {
			return nil, derr
		}
		plain = make([]string, len(ints))
		for i, v := range ints {
			plain[i] = strconv.FormatInt(v, 10)
		}
	default:
		return nil, errors.NewEncodingError(errors.CodeUnknownCodec,
			"unknown column codec "+strconv.Itoa(int(col.Codec)), nil)
	}
	if err != nil {
		return nil, err
	}
	return splice(plain, excs, col.ValueCount)
}

// EncodeIntColumn trial-encodes an integer sequence with both the delta
// and Gorilla codecs and keeps whichever is smaller.
func EncodeIntColumn(values []int64) EncodedColumn {
	codec, primary := pickIntCodec(values)
	return EncodedColumn{
		Codec:      codec,
		ValueCount: len(values),
		Payload:    frame(primary, nil),
	}
}

// DecodeIntColumn reverses EncodeIntColumn.
func DecodeIntColumn(col EncodedColumn) ([]int64, error) {
	primary, excs, err := deframe(col.Payload)
	if err != nil {
		return nil, err
	}
	if len(excs) != 0 {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "integer column carries exceptions", nil)
	}
	return decodeIntPrimaryRaw(col.Codec, primary, col.ValueCount)
}

// DictCounts returns per-value occurrence counts for a dictionary column
// without materializing rows. Exception rows count as themselves.
func DictCounts(col EncodedColumn) (map[string]int, error) {
	if col.Codec != CodecDict {
		return nil, errors.NewEncodingError(errors.CodeUnknownCodec, "column is not dictionary encoded", nil)
	}
	primary, excs, err := deframe(col.Payload)
	if err != nil {
		return nil, err
	}
	counts, err := DecodeDictCounts(primary, col.ValueCount-len(excs))
	if err != nil {
		return nil, err
	}
	for _, ex := range excs {
		counts[ex.raw]++
	}
	return counts, nil
}

// TimestampRange returns the epoch millisecond bounds of a timestamp
// column's numeric rows. Exception rows are not represented numerically
// and are skipped; ok is false when no numeric rows exist.
func TimestampRange(col EncodedColumn) (minMS, maxMS int64, ok bool, err error) {
	if col.Codec != CodecTimestampDelta && col.Codec != CodecTimestampGorilla {
		return 0, 0, false, errors.NewEncodingError(errors.CodeUnknownCodec, "column is not timestamp encoded", nil)
	}
	primary, excs, err := deframe(col.Payload)
	if err != nil {
		return 0, 0, false, err
	}
	_, body, err := splitLayout(primary)
	if err != nil {
		return 0, 0, false, err
	}
	n := col.ValueCount - len(excs)
	if n == 0 {
		return 0, 0, false, nil
	}
	intCodec := CodecDelta
	if col.Codec == CodecTimestampGorilla {
		intCodec = CodecGorilla
	}
	ms, err := decodeIntPrimaryRaw(intCodec, body, n)
	if err != nil {
		return 0, 0, false, err
	}
	minMS, maxMS = ms[0], ms[0]
	for _, v := range ms[1:] {
		if v < minMS {
			minMS = v
		}
		if v > maxMS {
			maxMS = v
		}
	}
	return minMS, maxMS, true, nil
}

func (e *Encoder) encodeTimestamps(values []string) EncodedColumn {
	layout := ""
	for _, v := range values {
		if layout = DetectLayout(v); layout != "" {
			break
		}
	}
	if layout == "" {
		return e.encodePool(values)
	}
	var ms []int64
	var excs []exception
	for i, v := range values {
		t, err := ParseTimestamp(layout, v)
		if err != nil || FormatTimestamp(layout, t) != v {
			excs = append(excs, exception{row: i, raw: v})
			continue
		}
		ms = append(ms, t)
	}
	if len(excs) > len(values)/2 {
		return e.encodePool(values)
	}
	codec, body := pickIntCodec(ms)
	primary := AppendUvarint(nil, uint64(len(layout)))
	primary = append(primary, layout...)
	primary = append(primary, body...)
	tsCodec := CodecTimestampDelta
	if codec == CodecGorilla {
		tsCodec = CodecTimestampGorilla
	}
	return EncodedColumn{Codec: tsCodec, ValueCount: len(values), Payload: frame(primary, excs)}
}

func (e *Encoder) encodeInts(values []string) EncodedColumn {
	var ints []int64
	var excs []exception
	for i, v := range values {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || strconv.FormatInt(n, 10) != v {
			excs = append(excs, exception{row: i, raw: v})
			continue
		}
		ints = append(ints, n)
	}
	if len(excs) > len(values)/2 {
		return e.encodePool(values)
	}
	us := make([]uint64, len(ints))
	for i, v := range ints {
		us[i] = ZigzagEncode(v)
	}
	return EncodedColumn{Codec: CodecVarint, ValueCount: len(values), Payload: frame(EncodeRLE(us), excs)}
}

func (e *Encoder) encodeMetrics(values []string) EncodedColumn {
	var floats []float64
	var excs []exception
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || strconv.FormatFloat(f, 'g', -1, 64) != v {
			excs = append(excs, exception{row: i, raw: v})
			continue
		}
		floats = append(floats, f)
	}
	if len(excs) > len(values)/2 {
		return e.encodePool(values)
	}
	return EncodedColumn{Codec: CodecFloat, ValueCount: len(values), Payload: frame(EncodeFloats(floats), excs)}
}

func (e *Encoder) encodePool(values []string) EncodedColumn {
	ids := make([]uint64, len(values))
	for i, v := range values {
		ids[i] = e.pool.Intern(v)
	}
	return EncodedColumn{Codec: CodecPool, ValueCount: len(values), Payload: frame(EncodeRLE(ids), nil)}
}

func (e *Encoder) decodePoolPrimary(primary []byte, count int) ([]string, error) {
	ids, err := DecodeRLE(primary, count)
	if err != nil {
		return nil, err
	}
	values := make([]string, count)
	for i, id := range ids {
		values[i], err = e.pool.Lookup(id)
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

func decodeTimestampPrimary(codec Codec, primary []byte, count int) ([]string, error) {
	layout, body, err := splitLayout(primary)
	if err != nil {
		return nil, err
	}
	intCodec := CodecDelta
	if codec == CodecTimestampGorilla {
		intCodec = CodecGorilla
	}
	ms, err := decodeIntPrimaryRaw(intCodec, body, count)
	if err != nil {
		return nil, err
	}
	values := make([]string, count)
	for i, v := range ms {
		values[i] = FormatTimestamp(layout, v)
	}
	return values, nil
}

func splitLayout(primary []byte) (string, []byte, error) {
	l, n, err := Uvarint(primary)
	if err != nil {
		return "", nil, err
	}
	if n+int(l) > len(primary) {
		return "", nil, errors.NewEncodingError(errors.CodeDecodeFailed, "timestamp layout truncated", nil)
	}
	return string(primary[n : n+int(l)]), primary[n+int(l):], nil
}

func decodeIntPrimary(primary []byte, count int) ([]string, error) {
	us, err := DecodeRLE(primary, count)
	if err != nil {
		return nil, err
	}
	values := make([]string, count)
	for i, u := range us {
		values[i] = strconv.FormatInt(ZigzagDecode(u), 10)
	}
	return values, nil
}

func decodeFloatPrimary(primary []byte, count int) ([]string, error) {
	floats, err := DecodeFloats(primary, count)
	if err != nil {
		return nil, err
	}
	values := make([]string, count)
	for i, f := range floats {
		values[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return values, nil
}

func decodeIntPrimaryRaw(codec Codec, primary []byte, count int) ([]int64, error) {
	switch codec {
	case CodecDelta:
		return DecodeDelta(primary, count)
	case CodecGorilla:
		return DecodeGorilla(primary, count)
	}
	return nil, errors.NewEncodingError(errors.CodeUnknownCodec, "not an integer codec", nil)
}

func pickIntCodec(values []int64) (Codec, []byte) {
	delta := EncodeDelta(values)
	gorilla := EncodeGorilla(values)
	if len(gorilla) < len(delta) {
		return CodecGorilla, gorilla
	}
	return CodecDelta, delta
}

func frame(primary []byte, excs []exception) []byte {
	buf := AppendUvarint(nil, uint64(len(primary)))
	buf = append(buf, primary...)
	buf = AppendUvarint(buf, uint64(len(excs)))
	for _, ex := range excs {
		buf = AppendUvarint(buf, uint64(ex.row))
		buf = AppendUvarint(buf, uint64(len(ex.raw)))
		buf = append(buf, ex.raw...)
	}
	return buf
}

func deframe(payload []byte) ([]byte, []exception, error) {
	pl, off, err := Uvarint(payload)
	if err != nil {
		return nil, nil, err
	}
	if off+int(pl) > len(payload) {
		return nil, nil, errors.NewEncodingError(errors.CodeDecodeFailed, "column primary section truncated", nil)
	}
	primary := payload[off : off+int(pl)]
	off += int(pl)
	ec, n, err := Uvarint(payload[off:])
	if err != nil {
		return nil, nil, err
	}
	off += n
	excs := make([]exception, 0, ec)
	for i := uint64(0); i < ec; i++ {
		row, n, err := Uvarint(payload[off:])
		if err != nil {
			return nil, nil, err
		}
		off += n
		l, n, err := Uvarint(payload[off:])
		if err != nil {
			return nil, nil, err
		}
		off += n
		if off+int(l) > len(payload) {
			return nil, nil, errors.NewEncodingError(errors.CodeDecodeFailed, "column exception truncated", nil)
		}
		excs = append(excs, exception{row: int(row), raw: string(payload[off : off+int(l)])})
		off += int(l)
	}
	return primary, excs, nil
}

// splice reassembles the row order from the primary values and the
// exception list. Exception row indices refer to final positions.
func splice(plain []string, excs []exception, total int) ([]string, error) {
	if len(excs) == 0 {
		if len(plain) != total {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "column row count mismatch", nil)
		}
		return plain, nil
	}
	byRow := make(map[int]string, len(excs))
	for _, ex := range excs {
		byRow[ex.row] = ex.raw
	}
	out := make([]string, total)
	next := 0
	for i := 0; i < total; i++ {
		if raw, ok := byRow[i]; ok {
			out[i] = raw
			continue
		}
		if next >= len(plain) {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "column row count mismatch", nil)
		}
		out[i] = plain[next]
		next++
	}
	if next != len(plain) {
		return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "column row count mismatch", nil)
	}
	return out, nil
}
