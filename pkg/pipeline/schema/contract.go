package schema

import (
	"strings"
)

// Layout selects how results are presented.
type Layout string

const (
	LayoutFlat    Layout = "flat"
	LayoutGrouped Layout = "grouped"
)

// Column names of the upload CSV. Matching is exact.
const (
	ColumnCompanyName = "Company Name"
	ColumnRegion      = "Region"
	ColumnMaxResults  = "Max Results"
)

// Field captures the minimal behavior-relevant schema fields.
type Field struct {
	Name     string
	Required bool
}

// UploadFields is the column contract of the uploaded CSV.
var UploadFields = []Field{
	{Name: ColumnCompanyName, Required: true},
	{Name: ColumnRegion, Required: true},
	{Name: ColumnMaxResults, Required: false},
}

// RequiredUploadColumns returns the names of the mandatory upload columns.
func RequiredUploadColumns() []string {
	var out []string
	for _, f := range UploadFields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func NormalizeLayout(raw string) Layout {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "grouped", "group", "by-company", "by_company":
		return LayoutGrouped
	default:
		return LayoutFlat
	}
}
