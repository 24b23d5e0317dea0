package eventlog

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/prfstim/prfstim/pkg/errors"
)

// Header is the TSV column order.
var Header = []string{"run", "block", "trial_nr", "phase", "onset", "event_type", "response", "correct", "rt", "params"}

// TSV writes one tab-separated row per event, header first. Rows are
// flushed on every append so a crashed run keeps what it logged.
type TSV struct {
	w      *csv.Writer
	closer io.Closer
}

// NewTSV writes to w and writes the header immediately.
func NewTSV(w io.Writer) (*TSV, error) {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	t := &TSV{w: cw}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	cw.Flush()
	return t, cw.Error()
}

// CreateTSV creates (or truncates) the file at path.
func CreateTSV(path string) (*TSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create event log %s", path)
	}
	t, err := NewTSV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

func (t *TSV) Append(_ context.Context, e Event) error {
	row := []string{
		e.Run.String(),
		strconv.Itoa(e.Block),
		strconv.Itoa(e.Trial),
		strconv.Itoa(e.Phase),
		formatFloat(e.Onset),
		string(e.Type),
		e.Key,
		strconv.FormatBool(e.Correct),
		formatFloat(e.RT),
		paramString(e.Params),
	}
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

func (t *TSV) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		return err
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// ReadTSV parses a log written by [TSV].
func ReadTSV(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = len(Header)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read event log")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]Event, 0, len(rows)-1)
	for i, row := range rows[1:] {
		e, err := parseRow(row)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "event log row %d", i+2)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRow(row []string) (Event, error) {
	var (
		e   Event
		err error
	)
	if e.Run, err = uuid.Parse(row[0]); err != nil {
		return e, err
	}
	if e.Block, err = strconv.Atoi(row[1]); err != nil {
		return e, err
	}
	if e.Trial, err = strconv.Atoi(row[2]); err != nil {
		return e, err
	}
	if e.Phase, err = strconv.Atoi(row[3]); err != nil {
		return e, err
	}
	if e.Onset, err = strconv.ParseFloat(row[4], 64); err != nil {
		return e, err
	}
	e.Type = Type(row[5])
	e.Key = row[6]
	if e.Correct, err = strconv.ParseBool(row[7]); err != nil {
		return e, err
	}
	if e.RT, err = strconv.ParseFloat(row[8], 64); err != nil {
		return e, err
	}
	e.Params = parseParams(row[9])
	return e, nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', 4, 64) }

var _ Log = (*TSV)(nil)
