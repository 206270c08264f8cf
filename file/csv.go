package file

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// RecordDecoder builds one typed record from a CSV row.
type RecordDecoder[T any] func(row []string) (T, error)

// CSVSource reads already-normalized import records from a CSV file in a
// FileStore. It is transport only; row normalization belongs upstream.
type CSVSource[T any] struct {
	Store FileStore
	Name  string
	//Header skip the first row
	Header bool
	Decode RecordDecoder[T]
}

// ReadAll load every record of the file, in file order.
func (s *CSVSource[T]) ReadAll() ([]T, error) {
	ok, err := s.Store.Exists(s.Name)
	if err != nil {
		return nil, errors.Wrap(err, "stat import file "+s.Name)
	}
	if !ok {
		return nil, errors.New("import file not found: " + s.Name)
	}
	reader, err := s.Store.Open(s.Name)
	if err != nil {
		return nil, errors.Wrap(err, "open import file "+s.Name)
	}
	defer reader.Close()

	cReader := csv.NewReader(bufio.NewReader(reader))
	records := make([]T, 0)
	line := 0
	for {
		row, err := cReader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s line %d", s.Name, line+1)
		}
		line++
		if s.Header && line == 1 {
			continue
		}
		record, err := s.Decode(row)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s line %d", s.Name, line)
		}
		records = append(records, record)
	}
}
