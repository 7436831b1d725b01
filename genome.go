//----------------------------------------------------------------------------------------
// FMSA: genome.go
// Reading reference genomes from FASTA files into the concatenated encoded
// text plus contig directory, and building index snapshots from them.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/TuftsBCB/io/fasta"
)

//----------------------------------------------------------------------------------------
// ReadReference reads all contigs of a FASTA file and returns the contig
// directory and the encoded text: contigs separated by one sentinel symbol,
// with a final sentinel terminating the text.
//----------------------------------------------------------------------------------------
func ReadReference(file_name string) ([]Contig, []byte, error) {
	f, err := os.Open(file_name)
	if err != nil {
		return nil, nil, fmt.Errorf("open reference %s: %w", file_name, err)
	}
	defer f.Close()

	contigs, text, err := readReference(f)
	if err != nil {
		return nil, nil, fmt.Errorf("read reference %s: %w", file_name, err)
	}
	return contigs, text, nil
}

func readReference(r io.Reader) ([]Contig, []byte, error) {
	reader := fasta.NewReader(r)
	var contigs []Contig
	var text []byte
	total := 0
	for {
		s, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		name := s.Name
		if k := strings.IndexAny(name, " \t"); k >= 0 {
			name = name[:k]
		}
		residues := s.Bytes()
		off := uint32(len(text))
		for _, b := range residues {
			text = append(text, EncodeBase(b))
		}
		contigs = append(contigs, Contig{Name: name, Len: uint32(len(residues)), Off: off})
		text = append(text, SymSentinel)
		total += len(residues)
	}
	if len(contigs) == 0 {
		return nil, nil, fmt.Errorf("no sequences found")
	}
	if total == 0 {
		return nil, nil, fmt.Errorf("only empty sequences found")
	}
	return contigs, text, nil
}

//----------------------------------------------------------------------------------------
// EncodeContigs builds the concatenated text directly from in-memory
// sequences; the index build and the tests share it.
//----------------------------------------------------------------------------------------
func EncodeContigs(names []string, seqs [][]byte) ([]Contig, []byte) {
	var contigs []Contig
	var text []byte
	for i, seq := range seqs {
		off := uint32(len(text))
		for _, b := range seq {
			text = append(text, EncodeBase(b))
		}
		contigs = append(contigs, Contig{Name: names[i], Len: uint32(len(seq)), Off: off})
		text = append(text, SymSentinel)
	}
	return contigs, text
}

//----------------------------------------------------------------------------------------
// BuildIndexFile reads a reference, builds the FM-index and saves the
// snapshot with build provenance attached.
//----------------------------------------------------------------------------------------
func BuildIndexFile(ref_file, out_file string, block, sa_rate uint32, cmd_line string) (*FMIndex, error) {
	contigs, text, err := ReadReference(ref_file)
	if err != nil {
		return nil, err
	}
	log.Printf("Reference %s: %d contigs, total length %d", ref_file, len(contigs), len(text)-len(contigs))

	I := NewFMIndex(text, contigs, block, sa_rate)
	I.HasMeta = true
	I.Meta = IndexMeta{
		RefFile:   ref_file,
		CmdLine:   cmd_line,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := I.Save(out_file); err != nil {
		return nil, err
	}
	log.Printf("Index saved: %s", out_file)
	return I, nil
}
