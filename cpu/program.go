package cpu

import (
	"iter"
)

// Line is a single assembled source line.
type Line struct {
	LineNo int    // Source line number, from 1.
	Ip     int    // Address of the first word.
	Text   string // Statement text.
	Words  []Word // Encoded words.
}

// Program is an assembled program, with its source line mapping.
type Program struct {
	Lines []Line
}

// Debug locates the source line of an address.
type Debug struct {
	*Line
	Index int // Word index within the line.
}

// NewProgram creates a program from a binary image, with one line per
// disassembled instruction.
func NewProgram(words []Word) (prog *Program) {
	prog = &Program{}
	ip := 0
	for ip < len(words) {
		text, size, err := DisassembleOne(words[ip:])
		if err != nil {
			text = formatData(words[ip])
			size = 1
		}
		prog.Lines = append(prog.Lines, Line{
			LineNo: len(prog.Lines) + 1,
			Ip:     ip,
			Text:   text,
			Words:  words[ip : ip+size],
		})
		ip += size
	}

	return
}

// Debug returns the line containing an address; Line is nil if there is none.
func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, line := range prog.Lines {
		if int(ip) >= line.Ip && int(ip) < line.Ip+len(line.Words) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: int(ip) - line.Ip,
			}
			break
		}
	}

	return
}

// LineAddress returns the address of the first word generated by a source line.
func (prog *Program) LineAddress(lineno int) (ip int, ok bool) {
	for _, line := range prog.Lines {
		if line.LineNo == lineno {
			return line.Ip, true
		}
	}

	return
}

// Size returns the number of words in the program.
func (prog *Program) Size() (size int) {
	for _, line := range prog.Lines {
		size = max(size, line.Ip+len(line.Words))
	}
	return
}

// Binary returns the program image.
func (prog *Program) Binary() (bins []Word) {
	bins = make([]Word, prog.Size())
	for ip, word := range prog.Words() {
		bins[ip] = word
	}

	return
}

// Words iterates over the program words by address.
func (prog *Program) Words() iter.Seq2[int, Word] {
	return func(yield func(ip int, word Word) bool) {
		for _, line := range prog.Lines {
			for n, word := range line.Words {
				if !yield(line.Ip+n, word) {
					return
				}
			}
		}
	}
}
