// Package tablefile implements the columnar on-disk codec used by
// checkpointing: one table per file, INT64 columns varint-encoded, VARCHAR
// columns concatenated and LZ4-compressed with a varint lengths section.
// The format carries no cross-version guarantee.
package tablefile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"minilake/internal/domain"
)

const (
	magic   = "MLCF"
	footer  = "ENDM"
	version = 1

	typeInt64   byte = 0
	typeVarchar byte = 1
)

// Write encodes the table into path, replacing any existing file.
func Write(path string, t *domain.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := encode(w, t); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush table file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close table file: %w", err)
	}
	return nil
}

// Read decodes a table from path. Name and ID come from the file so a
// manifest only needs to reference the filename. Length fields inside the
// file are checked against the file size before anything is allocated, so a
// corrupt file errors out instead of exhausting memory.
func Read(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat table file: %w", err)
	}
	return decode(bufio.NewReader(f), uint64(fi.Size()))
}

func encode(w io.Writer, t *domain.Table) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{version}); err != nil {
		return err
	}
	if err := writeString(w, t.ID); err != nil {
		return err
	}
	if err := writeString(w, t.Name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(t.Columns))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(t.NumRows)); err != nil {
		return err
	}
	for _, col := range t.Columns {
		if err := encodeColumn(w, col); err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
	}
	_, err := io.WriteString(w, footer)
	return err
}

func encodeColumn(w io.Writer, col *domain.ColumnVector) error {
	if err := writeString(w, col.Name); err != nil {
		return err
	}
	var payload []byte
	var typ byte
	switch col.Type {
	case domain.TypeInt64:
		typ = typeInt64
		buf := make([]byte, 0, len(col.Ints)*2)
		tmp := make([]byte, binary.MaxVarintLen64)
		for _, v := range col.Ints {
			n := binary.PutVarint(tmp, v)
			buf = append(buf, tmp[:n]...)
		}
		payload = buf
	case domain.TypeVarchar:
		typ = typeVarchar
		var err error
		payload, err = encodeVarchar(col.Strs)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown column type %q", col.Type)
	}
	if _, err := w.Write([]byte{typ}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// encodeVarchar lays out a varint lengths section followed by the
// LZ4-compressed concatenation of all values.
func encodeVarchar(values []string) ([]byte, error) {
	var lengths bytes.Buffer
	var blob bytes.Buffer
	tmp := make([]byte, binary.MaxVarintLen64)
	for _, s := range values {
		n := binary.PutUvarint(tmp, uint64(len(s)))
		lengths.Write(tmp[:n])
		blob.WriteString(s)
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(blob.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	n := binary.PutUvarint(tmp, uint64(lengths.Len()))
	out.Write(tmp[:n])
	out.Write(lengths.Bytes())
	out.Write(compressed.Bytes())
	return out.Bytes(), nil
}

func decode(r *bufio.Reader, fileSize uint64) (*domain.Table, error) {
	head := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(head[:len(magic)]) != magic {
		return nil, fmt.Errorf("bad magic %q", head[:len(magic)])
	}
	if head[len(magic)] != version {
		return nil, fmt.Errorf("unsupported version %d", head[len(magic)])
	}

	id, err := readString(r, fileSize)
	if err != nil {
		return nil, err
	}
	name, err := readString(r, fileSize)
	if err != nil {
		return nil, err
	}
	var numCols uint16
	if err := binary.Read(r, binary.LittleEndian, &numCols); err != nil {
		return nil, err
	}
	var numRows uint64
	if err := binary.Read(r, binary.LittleEndian, &numRows); err != nil {
		return nil, err
	}
	// Every row costs at least one encoded byte per column, so a row count
	// beyond the file size can only come from corruption.
	if numRows > fileSize {
		return nil, fmt.Errorf("row count %d exceeds file size %d", numRows, fileSize)
	}

	t := &domain.Table{ID: id, Name: name, NumRows: int(numRows)}
	for i := 0; i < int(numCols); i++ {
		col, err := decodeColumn(r, int(numRows), fileSize)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		t.Columns = append(t.Columns, col)
	}

	tail := make([]byte, len(footer))
	if _, err := io.ReadFull(r, tail); err != nil {
		return nil, fmt.Errorf("read footer: %w", err)
	}
	if string(tail) != footer {
		return nil, fmt.Errorf("bad footer %q", tail)
	}
	return t, nil
}

func decodeColumn(r *bufio.Reader, numRows int, fileSize uint64) (*domain.ColumnVector, error) {
	name, err := readString(r, fileSize)
	if err != nil {
		return nil, err
	}
	typ, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var payloadLen uint64
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return nil, err
	}
	if payloadLen > fileSize {
		return nil, fmt.Errorf("payload length %d exceeds file size %d", payloadLen, fileSize)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	switch typ {
	case typeInt64:
		col := domain.NewColumnVector(domain.Column{Name: name, Type: domain.TypeInt64})
		br := bytes.NewReader(payload)
		for i := 0; i < numRows; i++ {
			v, err := binary.ReadVarint(br)
			if err != nil {
				return nil, fmt.Errorf("varint row %d: %w", i, err)
			}
			col.Ints = append(col.Ints, v)
		}
		return col, nil
	case typeVarchar:
		col := domain.NewColumnVector(domain.Column{Name: name, Type: domain.TypeVarchar})
		strs, err := decodeVarchar(payload, numRows)
		if err != nil {
			return nil, err
		}
		col.Strs = strs
		return col, nil
	default:
		return nil, fmt.Errorf("unknown column type byte %d", typ)
	}
}

func decodeVarchar(payload []byte, numRows int) ([]string, error) {
	br := bytes.NewReader(payload)
	lengthsLen, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	if lengthsLen > uint64(len(payload)) {
		return nil, fmt.Errorf("lengths section %d exceeds payload size %d", lengthsLen, len(payload))
	}
	lengthsBytes := make([]byte, lengthsLen)
	if _, err := io.ReadFull(br, lengthsBytes); err != nil {
		return nil, err
	}
	lengths := make([]uint64, 0, numRows)
	lr := bytes.NewReader(lengthsBytes)
	for i := 0; i < numRows; i++ {
		n, err := binary.ReadUvarint(lr)
		if err != nil {
			return nil, fmt.Errorf("length row %d: %w", i, err)
		}
		lengths = append(lengths, n)
	}

	zr := lz4.NewReader(br)
	blob, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	out := make([]string, 0, numRows)
	off := uint64(0)
	for i, n := range lengths {
		if off+n > uint64(len(blob)) {
			return nil, fmt.Errorf("string %d runs past blob end", i)
		}
		out = append(out, string(blob[off:off+n]))
		off += n
	}
	return out, nil
}

func writeString(w io.Writer, s string) error {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, uint64(len(s)))
	if _, err := w.Write(tmp[:n]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r *bufio.Reader, fileSize uint64) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n > fileSize {
		return "", fmt.Errorf("string length %d exceeds file size %d", n, fileSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
