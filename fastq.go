//----------------------------------------------------------------------------------------
// FMSA: fastq.go
// Reading four-line FASTQ records. Malformed records surface as errors naming
// the offending line so the align subcommand can abort with context.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

//----------------------------------------------------------------------------------------
// ReadRec is one sequencing read. Idx is its position in the input stream,
// used by the order-preserving writer.
//----------------------------------------------------------------------------------------
type ReadRec struct {
	Name string
	Seq  []byte
	Qual []byte
	Idx  int
}

// FastqScanner reads records one at a time from a FASTQ stream.
type FastqScanner struct {
	r    *bufio.Reader
	line int
}

// NewFastqScanner wraps a FASTQ stream.
func NewFastqScanner(r io.Reader) *FastqScanner {
	return &FastqScanner{r: bufio.NewReader(r)}
}

func (sc *FastqScanner) readLine() ([]byte, error) {
	line, err := sc.r.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	sc.line++
	return bytes.TrimRight(line, "\r\n"), nil
}

//----------------------------------------------------------------------------------------
// Next returns the next record, io.EOF at end of input, or a structured error
// for a malformed record.
//----------------------------------------------------------------------------------------
func (sc *FastqScanner) Next() (*ReadRec, error) {
	var header []byte
	for {
		line, err := sc.readLine()
		if err != nil {
			return nil, io.EOF
		}
		if len(line) > 0 {
			header = line
			break
		}
	}
	if header[0] != '@' {
		return nil, fmt.Errorf("fastq line %d: header does not start with '@'", sc.line)
	}
	name := header[1:]
	if k := bytes.IndexAny(name, " \t"); k >= 0 {
		name = name[:k]
	}

	seq, err := sc.readLine()
	if err != nil {
		return nil, fmt.Errorf("fastq line %d: missing sequence line", sc.line+1)
	}
	plus, err := sc.readLine()
	if err != nil || len(plus) == 0 || plus[0] != '+' {
		return nil, fmt.Errorf("fastq line %d: missing '+' line", sc.line+1)
	}
	qual, err := sc.readLine()
	if err != nil {
		return nil, fmt.Errorf("fastq line %d: missing quality line", sc.line+1)
	}
	if len(qual) != len(seq) {
		return nil, fmt.Errorf("fastq line %d: quality length %d does not match sequence length %d",
			sc.line, len(qual), len(seq))
	}

	rec := &ReadRec{
		Name: string(name),
		Seq:  append([]byte(nil), seq...),
		Qual: append([]byte(nil), qual...),
	}
	return rec, nil
}
