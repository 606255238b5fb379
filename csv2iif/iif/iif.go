// Package iif reads and writes QuickBooks IIF interchange files:
// tab-delimited records grouped under "!"-prefixed header lines, with
// transactions as TRNS/SPL pairs closed by ENDTRNS.
package iif

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrMismatchedRecords     = errors.New("iif: row does not match expected header")
	ErrUnexpectedSectionType = errors.New("iif: unexpected record type for current section")
	ErrEmptyHeader           = errors.New("iif: empty header")
)

type RecordType string

type Header struct {
	Type   RecordType
	Fields []string
}

type Record struct {
	Type   RecordType
	Fields map[string]string
}

type Block struct {
	Records [][]Record
	Headers []Header
}

type File struct {
	Blocks []Block
}

type Decoder struct {
	r        *csv.Reader
	err      error
	IsHeader bool
	Type     RecordType
	Fields   []string
}

func NewDecoder(r io.Reader) *Decoder {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = false
	reader.FieldsPerRecord = -1
	d := Decoder{r: reader}
	d.Next()
	return &d
}

func (d *Decoder) Next() {
	line, err := d.r.Read()
	d.err = err
	if err == nil {
		d.IsHeader = strings.HasPrefix(line[0], "!")
		if d.IsHeader {
			d.Type = RecordType(line[0][1:])
		} else {
			d.Type = RecordType(line[0])
		}
		d.Fields = line[1:]
	}
}

func (d *Decoder) Error() error {
	if d.err != io.EOF {
		return d.err
	}
	return nil
}

func (d *Decoder) Done() bool {
	return d.err != nil
}

func (f *File) Load(d *Decoder) error {
	for !d.Done() {
		if d.Error() != nil {
			return d.Error()
		}
		b := Block{}
		err := b.Load(d)
		if err != nil {
			return err
		}
		f.Blocks = append(f.Blocks, b)
	}
	return nil
}

func (h Header) MapFields(fields []string) map[string]string {
	m := make(map[string]string, len(fields))
	for i, f := range h.Fields {
		if i >= len(fields) {
			break
		}
		m[f] = fields[i]
	}
	return m
}

func (b *Block) Load(d *Decoder) error {
	if d.Done() {
		return d.Error()
	}
	// Parse Headers
	for !d.Done() && d.IsHeader {
		b.Headers = append(
			b.Headers,
			Header{
				Type:   RecordType(d.Type),
				Fields: trimLine(d.Fields),
			},
		)
		d.Next()
	}
	if d.Error() != nil {
		return d.Error()
	}

	// Parse Records
	for !d.Done() && !d.IsHeader {
		r := []Record{}
		// At least one record per header
		if len(b.Headers) == 0 {
			return ErrEmptyHeader
		}
		for _, h := range b.Headers {
			if d.Done() {
				return d.Error()
			}
			if d.Done() || d.Type != h.Type {
				return ErrMismatchedRecords
			}

			for !d.Done() && !d.IsHeader && d.Type == h.Type {
				r = append(r, Record{
					Type:   d.Type,
					Fields: h.MapFields(d.Fields),
				})
				d.Next()
			}
			if len(r) == 0 {
				return ErrMismatchedRecords
			}
		}
		b.Records = append(b.Records, r)
	}
	return nil
}

func trimLine(records []string) []string {
	for i, r := range records {
		if r == "" {
			return records[:i]
		}
	}
	return records
}

func (d *Decoder) Decode() (*File, error) {
	f := File{}
	err := f.Load(d)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return &f, nil
}

// Headers for the document the Encoder produces. The legend columns match
// what QuickBooks expects for account and transaction imports.
var (
	AccntHeader = Header{Type: "ACCNT", Fields: []string{"NAME", "ACCNTTYPE", "DESC", "ACCNUM", "EXTRA"}}
	TrnsHeader  = Header{Type: "TRNS", Fields: []string{"TRNSTYPE", "DATE", "ACCNT", "NAME", "AMOUNT", "MEMO", "CLEAR"}}
	SplHeader   = Header{Type: "SPL", Fields: []string{"TRNSTYPE", "DATE", "ACCNT", "NAME", "AMOUNT", "MEMO", "CLEAR"}}
	EndHeader   = Header{Type: "ENDTRNS"}
)

// Encoder writes IIF output. Lines are tab-separated and CRLF-terminated.
// The Encoder exclusively owns writes to its sink.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteHeader emits the fixed document header: the account legend, the
// target account, the offset account (as an expense account), and the
// TRNS/SPL/ENDTRNS legends. Call once, before any transaction.
func (e *Encoder) WriteHeader(account, accountType, offsetAccount string) error {
	if err := e.writeHeaderLine(AccntHeader); err != nil {
		return err
	}
	if err := e.writeLine("ACCNT", account, accountType); err != nil {
		return err
	}
	if err := e.writeLine("ACCNT", offsetAccount, "EXP"); err != nil {
		return err
	}
	for _, h := range []Header{TrnsHeader, SplHeader, EndHeader} {
		if err := e.writeHeaderLine(h); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTransaction appends one TRNS line, the transaction's SPL lines, and
// the ENDTRNS terminator.
func (e *Encoder) EncodeTransaction(t Transaction) error {
	rec, err := serializeRecord(TrnsHeader.Type, &t.Tr)
	if err != nil {
		return err
	}
	if err := e.writeRecord(TrnsHeader, rec); err != nil {
		return err
	}
	for i := range t.Splits {
		rec, err := serializeRecord(SplHeader.Type, &t.Splits[i])
		if err != nil {
			return err
		}
		if err := e.writeRecord(SplHeader, rec); err != nil {
			return err
		}
	}
	return e.writeLine(string(EndHeader.Type))
}

// Encode writes a whole decoded File back out, record fields ordered by
// each block's headers.
func (e *Encoder) Encode(f *File) error {
	for _, b := range f.Blocks {
		if err := e.encodeBlock(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeBlock(b Block) error {
	if len(b.Headers) == 0 {
		return ErrEmptyHeader
	}
	byType := make(map[RecordType]Header, len(b.Headers))
	for _, h := range b.Headers {
		if err := e.writeHeaderLine(h); err != nil {
			return err
		}
		byType[h.Type] = h
	}
	for _, group := range b.Records {
		for _, r := range group {
			h, ok := byType[r.Type]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnexpectedSectionType, r.Type)
			}
			if err := e.writeRecord(h, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder) writeHeaderLine(h Header) error {
	cells := make([]string, 0, len(h.Fields)+1)
	cells = append(cells, "!"+string(h.Type))
	cells = append(cells, h.Fields...)
	return e.writeLine(cells...)
}

func (e *Encoder) writeRecord(h Header, r Record) error {
	cells := make([]string, 0, len(h.Fields)+1)
	cells = append(cells, string(r.Type))
	for _, f := range h.Fields {
		cells = append(cells, r.Fields[f])
	}
	return e.writeLine(cells...)
}

func (e *Encoder) writeLine(cells ...string) error {
	_, err := io.WriteString(e.w, strings.Join(cells, "\t")+"\r\n")
	return err
}
