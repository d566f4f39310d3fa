package compile

import (
	"encoding/binary"
	"fmt"
)

// moduleMagic tags a compiled Glint module file, the counterpart of
// sentra's .snc/.snb compiled-bytecode format, so "glint run" can recognize
// one without relying on a file extension convention alone.
var moduleMagic = [4]byte{'G', 'L', 'N', 'T'}

// EncodeModule serializes code and its constants table into a single
// self-contained file: a 4-byte magic, a big-endian uint32 constant count,
// each constant as a uint32 length prefix plus its bytes, then a uint32
// code length and the code itself.
func EncodeModule(code []byte, constants [][]byte) []byte {
	out := append([]byte(nil), moduleMagic[:]...)

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(constants)))
	out = append(out, count[:]...)

	for _, c := range constants {
		var ln [4]byte
		binary.BigEndian.PutUint32(ln[:], uint32(len(c)))
		out = append(out, ln[:]...)
		out = append(out, c...)
	}

	var codeLen [4]byte
	binary.BigEndian.PutUint32(codeLen[:], uint32(len(code)))
	out = append(out, codeLen[:]...)
	out = append(out, code...)
	return out
}

// DecodeModule is EncodeModule's inverse.
func DecodeModule(data []byte) (code []byte, constants [][]byte, err error) {
	if len(data) < 8 || string(data[:4]) != string(moduleMagic[:]) {
		return nil, nil, fmt.Errorf("not a glint module file")
	}
	pos := 4
	count := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	constants = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(data) {
			return nil, nil, fmt.Errorf("truncated module: constant %d length", i)
		}
		ln := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		if pos+int(ln) > len(data) {
			return nil, nil, fmt.Errorf("truncated module: constant %d body", i)
		}
		constants = append(constants, data[pos:pos+int(ln)])
		pos += int(ln)
	}

	if pos+4 > len(data) {
		return nil, nil, fmt.Errorf("truncated module: code length")
	}
	codeLen := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4
	if pos+int(codeLen) > len(data) {
		return nil, nil, fmt.Errorf("truncated module: code body")
	}
	code = data[pos : pos+int(codeLen)]
	return code, constants, nil
}
