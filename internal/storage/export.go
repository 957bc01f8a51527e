package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatCBOR = "cbor"
)

var ErrUnknownFormat = errors.New("storage: unknown export format")

// Formats lists the supported export formats.
func Formats() []string {
	return []string{FormatCBOR, FormatCSV, FormatJSON}
}

// ExportData is the self-describing form of a run.
type ExportData struct {
	Run       RunMetadata          `json:"run" cbor:"run"`
	Variables map[string][]float64 `json:"variables" cbor:"variables"`
}

// exportEncMode writes deterministic CBOR so identical runs give identical
// bytes.
var exportEncMode cbor.EncMode

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	exportEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create export CBOR encoder mode: %v", err))
	}
}

// Export writes a run in the given format.
func Export(w io.Writer, format string, meta *RunMetadata, table *Table) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, meta, table)
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatCBOR:
		return WriteCBOR(w, meta, table)
	}
	return fmt.Errorf("%w: %q (available: %v)", ErrUnknownFormat, format, Formats())
}

func WriteJSON(w io.Writer, meta *RunMetadata, table *Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Variables: table.Data})
}

func WriteCBOR(w io.Writer, meta *RunMetadata, table *Table) error {
	return exportEncMode.NewEncoder(w).Encode(ExportData{Run: *meta, Variables: table.Data})
}

// ReadCBOR decodes a run written by WriteCBOR.
func ReadCBOR(r io.Reader) (*ExportData, error) {
	var data ExportData
	if err := cbor.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// WriteCSV writes one column per channel with a header row.
func WriteCSV(w io.Writer, table *Table) error {
	rows, err := table.Rows()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}

	row := make([]string, len(table.Columns))
	for i := 0; i < rows; i++ {
		for j, c := range table.Columns {
			row[j] = strconv.FormatFloat(table.Data[c][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
