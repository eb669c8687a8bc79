// Package bamsrc is the thin external boundary that makes the CLI in
// cmd/htsrecord runnable: block-level I/O, BGZF decompression, record
// framing and reference-dictionary bookkeeping are explicitly out of scope
// for the core record model (pkg/bam, pkg/sam), so this package supplies
// just enough of them, in terms of a single real domain dependency, to hand
// framed record bytes to bam.Record.FromBytes.
package bamsrc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"

	"github.com/scttfrdmn/htsrecord/pkg/bam"
)

var bamMagic = [4]byte{'B', 'A', 'M', 1}

// refEntry is one reference sequence named in a BAM file's header block.
type refEntry struct {
	name string
	len  int64
}

// RefDict is a bam.ReferenceDict backed by the reference list decoded from a
// BAM file's own header block.
type RefDict struct {
	refs []refEntry
}

// RefName implements bam.ReferenceDict.
func (d *RefDict) RefName(id int) (string, bool) {
	if id < 0 || id >= len(d.refs) {
		return "", false
	}
	return d.refs[id].name, true
}

// RefLen implements bam.ReferenceDict.
func (d *RefDict) RefLen(id int) (int64, bool) {
	if id < 0 || id >= len(d.refs) {
		return 0, false
	}
	return d.refs[id].len, true
}

// Reader decodes a BGZF-compressed BAM byte stream into a sequence of raw,
// framed record buffers ready for bam.Record.FromBytes.
type Reader struct {
	buf  *bufio.Reader
	refs *RefDict
	text string
}

// NewReader opens a BAM stream, decompressing its BGZF blocks with rd
// concurrent workers (0 selects GOMAXPROCS, matching bgzf.NewReader), and
// decodes its plain-text and reference-list header sections.
func NewReader(r io.Reader, rd int) (*Reader, error) {
	bg, err := bgzf.NewReader(r, rd)
	if err != nil {
		return nil, fmt.Errorf("bamsrc: open bgzf stream: %w", err)
	}
	br := &Reader{buf: bufio.NewReader(bg)}
	if err := br.readHeader(); err != nil {
		return nil, err
	}
	return br, nil
}

func (r *Reader) readHeader() error {
	buf := r.buf

	var magic [4]byte
	if _, err := io.ReadFull(buf, magic[:]); err != nil {
		return fmt.Errorf("bamsrc: read magic: %w", err)
	}
	if magic != bamMagic {
		return fmt.Errorf("bamsrc: not a BAM stream (bad magic %v)", magic)
	}

	lText, err := readInt32(buf)
	if err != nil {
		return fmt.Errorf("bamsrc: read l_text: %w", err)
	}
	text := make([]byte, lText)
	if _, err := io.ReadFull(buf, text); err != nil {
		return fmt.Errorf("bamsrc: read header text: %w", err)
	}
	r.text = string(text)

	nRef, err := readInt32(buf)
	if err != nil {
		return fmt.Errorf("bamsrc: read n_ref: %w", err)
	}
	refs := make([]refEntry, 0, nRef)
	for i := int32(0); i < nRef; i++ {
		lName, err := readInt32(buf)
		if err != nil {
			return fmt.Errorf("bamsrc: read l_name for ref %d: %w", i, err)
		}
		name := make([]byte, lName)
		if _, err := io.ReadFull(buf, name); err != nil {
			return fmt.Errorf("bamsrc: read name for ref %d: %w", i, err)
		}
		refLen, err := readInt32(buf)
		if err != nil {
			return fmt.Errorf("bamsrc: read l_ref for ref %d: %w", i, err)
		}
		if n := len(name); n > 0 && name[n-1] == 0 {
			name = name[:n-1]
		}
		refs = append(refs, refEntry{name: string(name), len: int64(refLen)})
	}
	r.refs = &RefDict{refs: refs}
	return nil
}

func readInt32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

// PlainText returns the free-text SAM header carried at the start of the BAM
// stream (the "@HD/@SQ/..." lines), unparsed.
func (r *Reader) PlainText() string { return r.text }

// References returns the reference dictionary decoded from the BAM header,
// suitable for bam.Record.SetReferenceDict.
func (r *Reader) References() *RefDict { return r.refs }

// Read decodes the next record's block_size prefix, reads the whole framed
// record into an owned buffer and parses it via rec.FromBytes, attaching
// this Reader's reference dictionary. It returns io.EOF when the stream is
// exhausted between records.
func (r *Reader) Read(rec *bam.Record) error {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r.buf, sizeBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("bamsrc: truncated record length prefix: %w", err)
		}
		return err
	}
	blockSize := binary.LittleEndian.Uint32(sizeBuf[:])

	frame := make([]byte, 4+blockSize)
	copy(frame[:4], sizeBuf[:])
	if _, err := io.ReadFull(r.buf, frame[4:]); err != nil {
		return fmt.Errorf("bamsrc: read record body: %w", err)
	}

	rec.SetReferenceDict(r.refs)
	if err := rec.FromBytes(frame); err != nil {
		return fmt.Errorf("bamsrc: decode record: %w", err)
	}
	return nil
}
