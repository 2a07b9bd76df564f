package tx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var errShortRead = errors.New("unexpected end of transaction bytes")

type packer struct {
	b bytes.Buffer
}

func (p *packer) putUint16(v uint16) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	p.b.Write(buf)
}

func (p *packer) putUint32(v uint32) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	p.b.Write(buf)
}

func (p *packer) putUint64(v uint64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	p.b.Write(buf)
}

func (p *packer) putFixed(data []byte) {
	p.b.Write(data)
}

func (p *packer) putVarBytes(data []byte) {
	p.putUint32(uint32(len(data)))
	p.b.Write(data)
}

func (p *packer) bytes() []byte {
	return p.b.Bytes()
}

// reader walks a byte slice. The first failure sticks, later reads return zero values.
type reader struct {
	position int
	context  []byte
	err      error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) readFixed(n int) []byte {
	if r.err != nil {
		return make([]byte, n)
	}
	if n < 0 || r.position+n > len(r.context) {
		r.fail(errShortRead)
		return make([]byte, n)
	}
	data := r.context[r.position : r.position+n]
	r.position += n
	return data
}

func (r *reader) readUint16() uint16 {
	return binary.BigEndian.Uint16(r.readFixed(2))
}

func (r *reader) readUint32() uint32 {
	return binary.BigEndian.Uint32(r.readFixed(4))
}

func (r *reader) readUint64() uint64 {
	return binary.BigEndian.Uint64(r.readFixed(8))
}

// readLen reads a slice length and checks it against the bytes left, given
// the minimum encoded size of one element.
func (r *reader) readLen(elemSize int) int {
	n := r.readUint32()
	if r.err != nil {
		return 0
	}
	if elemSize > 0 && uint64(n)*uint64(elemSize) > uint64(r.remaining()) {
		r.fail(fmt.Errorf("slice length %d exceeds remaining %d bytes", n, r.remaining()))
		return 0
	}
	return int(n)
}

func (r *reader) readVarBytes(max int) []byte {
	n := r.readLen(1)
	if n > max {
		r.fail(fmt.Errorf("byte slice length %d exceeds %d", n, max))
		return nil
	}
	data := r.readFixed(n)
	return append([]byte(nil), data...)
}

func (r *reader) remaining() int {
	return len(r.context) - r.position
}
