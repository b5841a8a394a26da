package utils

import (
	"bufio"
	"encoding/binary"
	"io"
)

func ReadUint32LE(reader io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadCString reads bytes up to and including the next NUL. The NUL is not
// part of the result.
func ReadCString(reader *bufio.Reader) (CString, error) {
	buf, err := reader.ReadBytes(0)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return CString(buf[:len(buf)-1]), nil
}
