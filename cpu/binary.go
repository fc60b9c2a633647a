package cpu

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteBinary writes a program image: the decimal word count on the first
// line, then the words as 16-bit little-endian values.
func WriteBinary(w io.Writer, words []Word) (err error) {
	_, err = fmt.Fprintf(w, "%d\n", len(words))
	if err != nil {
		return
	}

	err = binary.Write(w, binary.LittleEndian, words)
	return
}

// ReadBinary reads a program image written by WriteBinary.
func ReadBinary(r io.Reader) (words []Word, err error) {
	br := bufio.NewReader(r)

	header, err := br.ReadString('\n')
	if err != nil {
		err = errors.Join(ErrBinaryFormat, err)
		return
	}

	count, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || count < 0 || count > MEMSIZE {
		err = errors.Join(ErrBinaryFormat, ErrProgramSize, err)
		return
	}

	words = make([]Word, count)
	err = binary.Read(br, binary.LittleEndian, words)
	if err != nil {
		words = nil
		err = errors.Join(ErrBinaryFormat, err)
		return
	}

	return
}
