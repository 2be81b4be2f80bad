package eventlog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/arpitbhardwaj7/syscallminer/pkg/types"
)

var (
	// ErrMissingColumn is returned when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMalformedRow is returned in strict mode for the first row that fails validation.
	ErrMalformedRow = errors.New("malformed row")
	// ErrUnsupportedFormat is returned for files that are neither CSV nor JSON lines.
	ErrUnsupportedFormat = errors.New("unsupported log format")
)

// Format is the row encoding of a log file.
type Format int

const (
	FormatCSV Format = iota
	FormatJSONL
)

func (f Format) String() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "csv"
}

// Options controls row validation during a load.
type Options struct {
	// Strict fails the load on the first malformed row instead of skipping it.
	Strict bool
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// FileStats describes the outcome of loading one file.
type FileStats struct {
	Path        string
	Format      Format
	Compression Compression
	Accepted    int
	Rejected    int
}

// Result is the set of validated events from one or more files.
type Result struct {
	Events   []types.Event
	Files    []FileStats
	Accepted int
	Rejected int
}

// DetectFormat picks the row encoding from the file name, ignoring a trailing .gz or .xz.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".xz")
	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV, nil
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	}
	return FormatCSV, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads and validates a single log file.
func Load(path string, opts Options) (Result, error) {
	var res Result
	stats, err := loadFile(path, opts, func(ev types.Event) { res.Events = append(res.Events, ev) })
	if err != nil {
		return Result{}, err
	}
	res.Files = []FileStats{stats}
	res.Accepted, res.Rejected = stats.Accepted, stats.Rejected
	return res, nil
}

// LoadAll concatenates the events of every path, in order.
func LoadAll(paths []string, opts Options) (Result, error) {
	var res Result
	emit := func(ev types.Event) { res.Events = append(res.Events, ev) }
	for _, path := range paths {
		stats, err := loadFile(path, opts, emit)
		if err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, stats)
		res.Accepted += stats.Accepted
		res.Rejected += stats.Rejected
	}
	return res, nil
}

func loadFile(path string, opts Options, emit func(types.Event)) (FileStats, error) {
	stats := FileStats{Path: path}
	format, err := DetectFormat(path)
	if err != nil {
		return stats, err
	}
	stats.Format = format

	rc, comp, err := Open(path)
	if err != nil {
		return stats, err
	}
	defer rc.Close()
	stats.Compression = comp

	d := &decoder{path: path, opts: opts, log: opts.logger(), stats: &stats, emit: emit}
	if format == FormatJSONL {
		err = d.decodeJSONL(rc)
	} else {
		err = d.decodeCSV(rc)
	}
	if err != nil {
		return stats, err
	}
	if stats.Rejected > 0 {
		d.log.Warn("skipped malformed rows",
			zap.String("path", path),
			zap.Int("rejected", stats.Rejected),
			zap.Int("accepted", stats.Accepted))
	}
	d.log.Debug("loaded event log",
		zap.String("path", path),
		zap.String("format", format.String()),
		zap.String("compression", comp.String()),
		zap.Int("events", stats.Accepted))
	return stats, nil
}

type decoder struct {
	path  string
	opts  Options
	log   *zap.Logger
	stats *FileStats
	emit  func(types.Event)
}

func (d *decoder) handle(line int, r row) error {
	ev, reason := r.toEvent()
	if reason == nil {
		d.stats.Accepted++
		d.emit(ev)
		return nil
	}
	return d.reject(line, reason)
}

func (d *decoder) reject(line int, reason error) error {
	if d.opts.Strict {
		return fmt.Errorf("%s:%d: %w: %v", d.path, line, ErrMalformedRow, reason)
	}
	d.stats.Rejected++
	d.log.Debug("rejected row", zap.String("path", d.path), zap.Int("line", line), zap.Error(reason))
	return nil
}

func (d *decoder) decodeCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header of %s: %w", d.path, err)
	}
	idx := indexHeader(header)
	if err := idx.missing(); err != nil {
		return fmt.Errorf("%s: %w", d.path, err)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			if err := d.reject(pe.StartLine, pe.Err); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", d.path, err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if err := d.handle(line, idx.extract(record)); err != nil {
			return err
		}
	}
}

// maxJSONLine caps the size of one JSON lines record.
var maxJSONLine = 4 * 1024 * 1024

var errLineTooLong = errors.New("line too long")

func (d *decoder) decodeJSONL(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	line := 0
	for {
		raw, tooLong, err := readLine(br, maxJSONLine)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", d.path, err)
		}
		line++
		if tooLong {
			if err := d.reject(line, fmt.Errorf("%w: over %d bytes", errLineTooLong, maxJSONLine)); err != nil {
				return err
			}
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if err := d.reject(line, fmt.Errorf("invalid json: %v", err)); err != nil {
				return err
			}
			continue
		}
		if err := d.handle(line, jsonRow(obj)); err != nil {
			return err
		}
	}
}

// readLine returns the next line including its newline. A line longer than limit is
// drained and reported as too long instead of being returned.
func readLine(br *bufio.Reader, limit int) ([]byte, bool, error) {
	var buf []byte
	read, tooLong := 0, false
	for {
		chunk, err := br.ReadSlice('\n')
		read += len(chunk)
		if read > limit {
			tooLong, buf = true, nil
		} else {
			buf = append(buf, chunk...)
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if read == 0 {
				return nil, false, io.EOF
			}
			return buf, tooLong, nil
		case err != nil:
			return nil, false, err
		}
		return buf, tooLong, nil
	}
}

func jsonRow(obj map[string]any) row {
	lower := make(map[string]any, len(obj))
	for k, v := range obj {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}
	var r row
	for col, aliases := range columnAliases {
		for _, alias := range aliases {
			if v, ok := lower[alias]; ok {
				r[col] = strings.TrimSpace(jsonString(v))
				break
			}
		}
	}
	return r
}

func jsonString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
