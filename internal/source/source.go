// Package source turns uploaded or on-disk tabular files into the ordered
// rows the batch pipeline consumes.
//
// Supported formats are comma-separated (.csv), tab-delimited (.txt, .tsv)
// and JSON arrays of objects (.json). Files are decoded from UTF-8 (an
// optional BOM is dropped and invalid bytes become U+FFFD) or Windows-1252
// before parsing, and an xxh3 checksum of the raw bytes is kept so the
// audit summary can identify exactly which file was loaded.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/tabload/internal/core"
)

// Format identifies a file layout.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// Encodings accepted in Options.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// DefaultMaxSize caps a single source file at 50 MB.
const DefaultMaxSize int64 = 50 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrTooLarge          = errors.New("file exceeds maximum size")
	ErrNoHeader          = errors.New("file has no header row")
)

// Options controls decoding.
type Options struct {
	Encoding string // utf-8 (default) or windows-1252
	MaxSize  int64  // bytes; 0 means DefaultMaxSize
}

func (o Options) maxSize() int64 {
	if o.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return o.MaxSize
}

// File is a fully parsed source. It implements core.Source and core.Checksummer.
type File struct {
	name     string
	checksum string
	columns  []string
	rows     []core.SourceRow
	pos      int
}

// Name returns the file name the source was opened with.
func (f *File) Name() string { return f.name }

// Columns returns the header in file order.
func (f *File) Columns() []string { return f.columns }

// Checksum returns the xxh3 hash of the raw file bytes as 16 hex digits.
func (f *File) Checksum() string { return f.checksum }

// Len returns the number of data rows.
func (f *File) Len() int { return len(f.rows) }

// Next returns the next row, or io.EOF once all rows were read.
func (f *File) Next() (core.SourceRow, error) {
	if f.pos >= len(f.rows) {
		return nil, io.EOF
	}
	row := f.rows[f.pos]
	f.pos++
	return row, nil
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".txt", ".tsv":
		return FormatTSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xls", ".xlsx":
		return "", fmt.Errorf("%w: %s (export the sheet to CSV first)", ErrUnsupportedFormat, ext)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ParseFormat accepts a format name as given on the command line or in a query string.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "tsv", "txt", "tab":
		return FormatTSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Open reads and parses the file at path.
func Open(path string, opts Options) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > opts.maxSize() {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), opts.maxSize())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(filepath.Base(path), data, format, opts)
}

// Read parses everything r yields, refusing input larger than the size limit.
func Read(name string, r io.Reader, format Format, opts Options) (*File, error) {
	limit := opts.maxSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, limit)
	}
	return FromBytes(name, data, format, opts)
}

// FromBytes parses raw file content.
func FromBytes(name string, data []byte, format Format, opts Options) (*File, error) {
	enc, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	text, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}

	f := &File{
		name:     name,
		checksum: fmt.Sprintf("%016x", xxh3.Hash(data)),
	}
	switch format {
	case FormatCSV:
		f.columns, f.rows, err = parseDelimited(text, ',')
	case FormatTSV:
		f.columns, f.rows, err = parseDelimited(text, '\t')
	case FormatJSON:
		f.columns, f.rows, err = parseJSON(text)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported source encoding %q", name)
	}
}

// CleanCell unwraps Excel's ="..." text formula. Anything else, including
// surrounding whitespace, is kept as it is.
func CleanCell(s string) string {
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	return s
}

func checkHeader(cols []string) error {
	if len(cols) == 0 {
		return ErrNoHeader
	}
	seen := make(map[string]int, len(cols))
	for i, c := range cols {
		if c == "" {
			return fmt.Errorf("header column %d is empty", i+1)
		}
		if j, ok := seen[c]; ok {
			return fmt.Errorf("header column %q appears at positions %d and %d", c, j+1, i+1)
		}
		seen[c] = i
	}
	return nil
}
