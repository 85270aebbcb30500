package encode

import "github.com/logpress/logpress/internal/errors"

// Pool is the container-wide intern table for high-cardinality string
// values. Columns of free text, paths, hosts and the like store pool
// indices; the pool itself is serialized once per container so a string
// repeated across templates costs its bytes only once.
type Pool struct {
	values []string
	index  map[string]uint64
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{index: make(map[string]uint64)}
}

// Intern adds s to the pool if absent and returns its index.
func (p *Pool) Intern(s string) uint64 {
	if id, ok := p.index[s]; ok {
		return id
	}
	id := uint64(len(p.values))
	p.index[s] = id
	p.values = append(p.values, s)
	return id
}

// Lookup returns the string at index id.
func (p *Pool) Lookup(id uint64) (string, error) {
	if id >= uint64(len(p.values)) {
		return "", errors.NewEncodingError(errors.CodeDecodeFailed, "pool index out of range", nil)
	}
	return p.values[id], nil
}

// Len returns the number of interned strings.
func (p *Pool) Len() int {
	return len(p.values)
}

// Serialize writes the pool as a varint count followed by length-prefixed
// entries in index order.
func (p *Pool) Serialize() []byte {
	buf := AppendUvarint(nil, uint64(len(p.values)))
	for _, v := range p.values {
		buf = AppendUvarint(buf, uint64(len(v)))
		buf = append(buf, v...)
	}
	return buf
}

// DeserializePool reads a pool written by Serialize.
func DeserializePool(data []byte) (*Pool, error) {
	n, off, err := Uvarint(data)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		values: make([]string, 0, n),
		index:  make(map[string]uint64, n),
	}
	for i := uint64(0); i < n; i++ {
		l, m, err := Uvarint(data[off:])
		if err != nil {
			return nil, err
		}
		off += m
		if off+int(l) > len(data) {
			return nil, errors.NewEncodingError(errors.CodeDecodeFailed, "pool entry truncated", nil)
		}
		p.Intern(string(data[off : off+int(l)]))
		off += int(l)
	}
	return p, nil
}
