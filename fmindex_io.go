//----------------------------------------------------------------------------------------
// FMSA: fmindex_io.go
// Saving and loading FM-index snapshots. The snapshot is a single binary file:
// little-endian fixed-width integers, length-prefixed vectors, gated by a
// magic number and a format version.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	// IndexMagic opens every snapshot, written as a little-endian u64.
	IndexMagic = uint64(0x424D_4146_4D5F5253)
	// IndexVersion is the current snapshot format version.
	IndexVersion = uint32(2)
)

//----------------------------------------------------------------------------------------
// Save writes the snapshot to file_name.
//----------------------------------------------------------------------------------------
func (I *FMIndex) Save(file_name string) error {
	f, err := os.Create(file_name)
	if err != nil {
		return fmt.Errorf("create index %s: %w", file_name, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := I.write(w); err != nil {
		return fmt.Errorf("write index %s: %w", file_name, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write index %s: %w", file_name, err)
	}
	return nil
}

func (I *FMIndex) write(w io.Writer) error {
	le := binary.LittleEndian
	write := func(data interface{}) error {
		return binary.Write(w, le, data)
	}
	write_bytes := func(b []byte) error {
		if err := write(uint32(len(b))); err != nil {
			return err
		}
		_, err := w.Write(b)
		return err
	}
	write_u32s := func(v []uint32) error {
		if err := write(uint32(len(v))); err != nil {
			return err
		}
		return write(v)
	}
	write_str := func(s string) error {
		return write_bytes([]byte(s))
	}

	if err := write(IndexMagic); err != nil {
		return err
	}
	if err := write(IndexVersion); err != nil {
		return err
	}
	if err := write(I.Sigma); err != nil {
		return err
	}
	if err := write(I.Block); err != nil {
		return err
	}
	if err := write(I.C); err != nil {
		return err
	}
	if err := write_bytes(I.BWT); err != nil {
		return err
	}
	if err := write_u32s(I.Occ); err != nil {
		return err
	}
	if err := write_u32s(I.SSA); err != nil {
		return err
	}
	if err := write(I.SARate); err != nil {
		return err
	}
	if err := write(uint32(len(I.Contigs))); err != nil {
		return err
	}
	for i := range I.Contigs {
		c := &I.Contigs[i]
		if err := write_str(c.Name); err != nil {
			return err
		}
		if err := write(uint64(c.Len)); err != nil {
			return err
		}
		if err := write(uint64(c.Off)); err != nil {
			return err
		}
	}
	if err := write_bytes(I.Seq); err != nil {
		return err
	}
	presence := uint8(0)
	if I.HasMeta {
		presence = 1
	}
	if err := write(presence); err != nil {
		return err
	}
	if I.HasMeta {
		if err := write_str(I.Meta.RefFile); err != nil {
			return err
		}
		if err := write_str(I.Meta.CmdLine); err != nil {
			return err
		}
		if err := write_str(I.Meta.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

//----------------------------------------------------------------------------------------
// LoadIndex reads a snapshot back. Mismatched magic and versions newer than
// IndexVersion are rejected; truncated or inconsistent snapshots surface as
// errors rather than panics.
//----------------------------------------------------------------------------------------
func LoadIndex(file_name string) (*FMIndex, error) {
	f, err := os.Open(file_name)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", file_name, err)
	}
	defer f.Close()

	I, err := readIndex(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", file_name, err)
	}
	return I, nil
}

func readIndex(r io.Reader) (*FMIndex, error) {
	le := binary.LittleEndian
	read := func(data interface{}) error {
		return binary.Read(r, le, data)
	}
	read_len := func(what string) (int, error) {
		var n uint32
		if err := read(&n); err != nil {
			return 0, fmt.Errorf("truncated %s length: %w", what, err)
		}
		return int(n), nil
	}
	read_bytes := func(what string) ([]byte, error) {
		n, err := read_len(what)
		if err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("truncated %s: %w", what, err)
		}
		return b, nil
	}
	read_u32s := func(what string) ([]uint32, error) {
		n, err := read_len(what)
		if err != nil {
			return nil, err
		}
		v := make([]uint32, n)
		if err := read(v); err != nil {
			return nil, fmt.Errorf("truncated %s: %w", what, err)
		}
		return v, nil
	}
	read_str := func(what string) (string, error) {
		b, err := read_bytes(what)
		return string(b), err
	}

	var magic uint64
	if err := read(&magic); err != nil {
		return nil, fmt.Errorf("truncated header: %w", err)
	}
	if magic != IndexMagic {
		return nil, fmt.Errorf("bad magic 0x%016X (want 0x%016X)", magic, IndexMagic)
	}
	var version uint32
	if err := read(&version); err != nil {
		return nil, fmt.Errorf("truncated header: %w", err)
	}
	if version > IndexVersion {
		return nil, fmt.Errorf("unsupported version %d (newest supported is %d)", version, IndexVersion)
	}

	I := new(FMIndex)
	if err := read(&I.Sigma); err != nil {
		return nil, fmt.Errorf("truncated header: %w", err)
	}
	if I.Sigma != AlphabetSize {
		return nil, fmt.Errorf("unexpected alphabet size %d", I.Sigma)
	}
	if err := read(&I.Block); err != nil {
		return nil, fmt.Errorf("truncated header: %w", err)
	}
	if I.Block == 0 {
		return nil, fmt.Errorf("invalid occ block size 0")
	}
	I.C = make([]uint32, AlphabetSize)
	if err := read(I.C); err != nil {
		return nil, fmt.Errorf("truncated count table: %w", err)
	}
	var err error
	if I.BWT, err = read_bytes("bwt"); err != nil {
		return nil, err
	}
	if I.Occ, err = read_u32s("occ samples"); err != nil {
		return nil, err
	}
	if I.SSA, err = read_u32s("sa samples"); err != nil {
		return nil, err
	}
	if err = read(&I.SARate); err != nil {
		return nil, fmt.Errorf("truncated sa sample rate: %w", err)
	}
	if I.SARate == 0 {
		return nil, fmt.Errorf("invalid sa sample rate 0")
	}

	contig_num, err := read_len("contig directory")
	if err != nil {
		return nil, err
	}
	I.Contigs = make([]Contig, contig_num)
	for i := 0; i < contig_num; i++ {
		name, err := read_str("contig name")
		if err != nil {
			return nil, err
		}
		var clen, coff uint64
		if err = read(&clen); err != nil {
			return nil, fmt.Errorf("truncated contig directory: %w", err)
		}
		if err = read(&coff); err != nil {
			return nil, fmt.Errorf("truncated contig directory: %w", err)
		}
		if coff+clen > uint64(len(I.BWT)) {
			return nil, fmt.Errorf("contig %s spans [%d,%d) beyond text length %d",
				name, coff, coff+clen, len(I.BWT))
		}
		I.Contigs[i] = Contig{Name: name, Len: uint32(clen), Off: uint32(coff)}
	}

	if I.Seq, err = read_bytes("text"); err != nil {
		return nil, err
	}
	if len(I.Seq) != len(I.BWT) {
		return nil, fmt.Errorf("text length %d does not match bwt length %d", len(I.Seq), len(I.BWT))
	}

	var presence uint8
	if err = read(&presence); err != nil {
		return nil, fmt.Errorf("truncated metadata presence byte: %w", err)
	}
	if presence == 1 {
		I.HasMeta = true
		if I.Meta.RefFile, err = read_str("metadata"); err != nil {
			return nil, err
		}
		if I.Meta.CmdLine, err = read_str("metadata"); err != nil {
			return nil, err
		}
		if I.Meta.Timestamp, err = read_str("metadata"); err != nil {
			return nil, err
		}
	}

	expected_blocks := (len(I.BWT) + int(I.Block) - 1) / int(I.Block)
	if len(I.Occ) != expected_blocks*AlphabetSize {
		return nil, fmt.Errorf("occ sample table has %d entries, want %d", len(I.Occ), expected_blocks*AlphabetSize)
	}
	expected_ssa := (len(I.BWT) + int(I.SARate) - 1) / int(I.SARate)
	if len(I.SSA) != expected_ssa {
		return nil, fmt.Errorf("sa sample table has %d entries, want %d", len(I.SSA), expected_ssa)
	}
	return I, nil
}
