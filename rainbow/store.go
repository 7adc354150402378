package rainbow

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/DataDog/zstd"
	log "github.com/sirupsen/logrus"
)

const (
	tableFileMagic   = "RBTS"
	tableFileVersion = uint16(1)
)

// tableFileHeader is the fixed-size part of a persisted table set.
type tableFileHeader struct {
	Magic        [4]byte
	Version      uint16
	Chains       uint32
	ChainLength  uint32
	Tables       uint32
	TruncateBits uint16
}

// chainsPerRead bounds how many chains are read from a table file at once,
// so the header alone cannot force a large allocation.
const chainsPerRead = 1 << 14

// EncodeTableSet writes set to w in the binary table file format.
func EncodeTableSet(w io.Writer, set *TableSet) error {
	p := set.Params
	if len(set.Tables) != p.Tables {
		return fmt.Errorf("table set holds %d tables, params say %d", len(set.Tables), p.Tables)
	}
	if err := fitsHeader(p); err != nil {
		return err
	}

	hdr := tableFileHeader{
		Version:      tableFileVersion,
		Chains:       uint32(p.Chains),
		ChainLength:  uint32(p.ChainLength),
		Tables:       uint32(p.Tables),
		TruncateBits: uint16(p.TruncateBits),
	}
	copy(hdr.Magic[:], tableFileMagic)

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, hdr); err != nil {
		return fmt.Errorf("unable to write header: %w", err)
	}
	if err := writeShortBytes(bw, []byte(p.Algorithm)); err != nil {
		return err
	}

	width := p.TruncateBits / 8
	for i, t := range set.Tables {
		if t.Len() != p.Chains {
			return fmt.Errorf("table %d holds %d chains, params say %d", i, t.Len(), p.Chains)
		}
		if err := writeShortBytes(bw, t.Salt); err != nil {
			return err
		}
		for _, c := range t.Chains {
			if len(c.Start) != width || len(c.End) != width {
				return fmt.Errorf("table %d holds a chain of the wrong width", i)
			}
			if _, err := bw.Write(c.Start); err != nil {
				return fmt.Errorf("unable to write chain: %w", err)
			}
			if _, err := bw.Write(c.End); err != nil {
				return fmt.Errorf("unable to write chain: %w", err)
			}
		}
	}
	return bw.Flush()
}

// fitsHeader reports an error if p cannot be represented in the file header.
func fitsHeader(p Params) error {
	for _, f := range []struct {
		name  string
		value int
		max   uint64
	}{
		{"chains", p.Chains, math.MaxUint32},
		{"chain_length", p.ChainLength, math.MaxUint32},
		{"tables", p.Tables, math.MaxUint32},
		{"truncate_bits", p.TruncateBits, math.MaxUint16},
	} {
		if f.value < 0 || uint64(f.value) > f.max {
			return fmt.Errorf("%s %d does not fit the table file header", f.name, f.value)
		}
	}
	if len(p.Algorithm) > math.MaxUint8 {
		return fmt.Errorf("algorithm name too long: %q", p.Algorithm)
	}
	return nil
}

// DecodeTableSet reads a table set written by EncodeTableSet.
func DecodeTableSet(r io.Reader) (*TableSet, error) {
	br := bufio.NewReader(r)
	p, err := decodeHeader(br)
	if err != nil {
		return nil, err
	}
	return decodeTables(br, p)
}

// decodeHeader reads and validates the table set parameters.
func decodeHeader(r io.Reader) (Params, error) {
	var hdr tableFileHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return Params{}, fmt.Errorf("unable to read header: %w", err)
	}
	if string(hdr.Magic[:]) != tableFileMagic {
		return Params{}, fmt.Errorf("not a table file")
	}
	if hdr.Version != tableFileVersion {
		return Params{}, fmt.Errorf("unsupported table file version %d", hdr.Version)
	}
	algo, err := readShortBytes(r)
	if err != nil {
		return Params{}, err
	}

	p := Params{
		Chains:       int(hdr.Chains),
		ChainLength:  int(hdr.ChainLength),
		Tables:       int(hdr.Tables),
		TruncateBits: int(hdr.TruncateBits),
		Algorithm:    string(algo),
	}
	if err := p.check(); err != nil {
		return Params{}, fmt.Errorf("stored table parameters: %w", err)
	}
	return p, nil
}

// decodeTables reads the tables following a header. Memory grows with the
// data actually read, never with the counts the header claims.
func decodeTables(r io.Reader, p Params) (*TableSet, error) {
	width := p.TruncateBits / 8
	set := &TableSet{Params: p, Tables: make([]*Table, 0, min(p.Tables, chainsPerRead))}
	for i := 0; i < p.Tables; i++ {
		salt, err := readShortBytes(r)
		if err != nil {
			return nil, err
		}
		t := &Table{Salt: salt, Chains: make([]Chain, 0, min(p.Chains, chainsPerRead))}
		for read := 0; read < p.Chains; {
			n := min(p.Chains-read, chainsPerRead)
			// One backing array per chunk, each chain value is a window into it.
			buf := make([]byte, 2*width*n)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("unable to read table %d: %w", i, err)
			}
			for j := 0; j < n; j++ {
				off := 2 * width * j
				t.Chains = append(t.Chains, Chain{
					Start: buf[off : off+width : off+width],
					End:   buf[off+width : off+2*width : off+2*width],
				})
			}
			read += n
		}
		set.Tables = append(set.Tables, t)
	}
	return set, nil
}

func writeShortBytes(w io.Writer, b []byte) error {
	if len(b) > math.MaxUint8 {
		return fmt.Errorf("field of %d bytes too long", len(b))
	}
	if _, err := w.Write(append([]byte{byte(len(b))}, b...)); err != nil {
		return fmt.Errorf("unable to write field: %w", err)
	}
	return nil
}

func readShortBytes(r io.Reader) ([]byte, error) {
	var n [1]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, fmt.Errorf("unable to read field length: %w", err)
	}
	b := make([]byte, n[0])
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("unable to read field: %w", err)
	}
	return b, nil
}

// SaveTableSet persists set to path. Paths ending in ".zst" are zstd
// compressed.
func SaveTableSet(set *TableSet, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create table file: %w", err)
	}

	var w io.Writer = f
	var compressed *zstd.Writer
	if strings.HasSuffix(path, ".zst") {
		compressed = zstd.NewWriter(f)
		w = compressed
	}

	if err = EncodeTableSet(w, set); err != nil {
		f.Close()
		return fmt.Errorf("unable to write table file: %w", err)
	}
	if compressed != nil {
		if err = compressed.Close(); err != nil {
			f.Close()
			return fmt.Errorf("unable to flush compressed table file: %w", err)
		}
	}

	log.WithField("path", path).WithField("params", set.Params.String()).Info("saved tables")
	return f.Close()
}

// LoadTableSet loads the table set at path and verifies it was built for
// requested. A differing shape yields a *ConfigMismatchError.
func LoadTableSet(path string, requested Params) (*TableSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open table file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		compressed := zstd.NewReader(f)
		defer compressed.Close()
		r = compressed
	}

	br := bufio.NewReader(r)
	stored, err := decodeHeader(br)
	if err != nil {
		return nil, fmt.Errorf("unable to read table file: %w", err)
	}
	if stored != requested {
		return nil, &ConfigMismatchError{Requested: requested, Stored: stored}
	}
	set, err := decodeTables(br, stored)
	if err != nil {
		return nil, fmt.Errorf("unable to read table file: %w", err)
	}

	log.WithField("path", path).WithField("params", set.Params.String()).Info("loaded tables")
	return set, nil
}
