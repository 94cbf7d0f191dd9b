package local

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

// ErrNoValidRows is the message used when nothing in the upload is usable.
const ErrNoValidRows = "No valid rows found"

const utf8BOM = "\uFEFF"

// ReadUploadRecords reads an uploaded company list.
//
// Rows missing "Company Name" or "Region" are dropped without individual errors;
// only an upload with no usable row at all fails.
func ReadUploadRecords(r io.Reader) ([]profiles.UploadRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &core.ValidationError{Msg: ErrNoValidRows}
	}
	if err != nil {
		return nil, &core.ValidationError{Msg: "read header", Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = i
	}

	var out []profiles.UploadRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.ValidationError{Msg: "read row", Err: err}
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		company := get(schema.ColumnCompanyName)
		region := get(schema.ColumnRegion)
		if company == "" || region == "" {
			continue
		}
		out = append(out, profiles.UploadRecord{
			CompanyName: company,
			Region:      region,
			MaxResults:  parseMaxResults(get(schema.ColumnMaxResults)),
		})
	}

	if len(out) == 0 {
		return nil, &core.ValidationError{Msg: ErrNoValidRows}
	}
	return out, nil
}

func parseMaxResults(raw string) int {
	if raw == "" {
		return profiles.DefaultMaxResults
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return profiles.DefaultMaxResults
	}
	return n
}
