package usdz

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// USDZ packaging rules: entries are stored uncompressed and each entry's file
// data starts on a 64-byte boundary. Alignment is achieved by padding the
// local header with an extra field, the same scheme usdzip uses.
const (
	dataAlignment  = 64
	paddingFieldID = 0x1986
	// localHeaderLen is the fixed portion of a zip local file header.
	localHeaderLen = 30
)

// packageWriter writes aligned, stored zip entries. Entries are written with
// precomputed sizes and checksums so archives carry no data descriptors.
type packageWriter struct {
	counter *countingWriter
	zw      *zip.Writer
}

func newPackageWriter(w io.Writer) *packageWriter {
	counter := &countingWriter{w: w}
	return &packageWriter{counter: counter, zw: zip.NewWriter(counter)}
}

// add appends one stored entry whose data begins on a 64-byte boundary.
func (p *packageWriter) add(name string, data []byte) error {
	// Flush so the counter reflects every byte emitted before this header.
	if err := p.zw.Flush(); err != nil {
		return fmt.Errorf("flush package: %w", err)
	}

	header := &zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
	}
	if pad := padFor(p.counter.n, len(name)); pad > 0 {
		header.Extra = paddingField(pad)
	}

	w, err := p.zw.CreateRaw(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (p *packageWriter) Close() error {
	return p.zw.Close()
}

// padFor returns the extra-field length that lands the entry data on the next
// 64-byte boundary. A non-empty extra field needs at least 4 bytes for its
// id and size, so short gaps are padded through the following boundary.
func padFor(offset int64, nameLen int) int {
	dataStart := offset + localHeaderLen + int64(nameLen)
	pad := int((dataAlignment - dataStart%dataAlignment) % dataAlignment)
	if pad > 0 && pad < 4 {
		pad += dataAlignment
	}
	return pad
}

func paddingField(pad int) []byte {
	extra := make([]byte, pad)
	binary.LittleEndian.PutUint16(extra[0:2], paddingFieldID)
	binary.LittleEndian.PutUint16(extra[2:4], uint16(pad-4))
	return extra
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
