package pipeline

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

// ErrNothingToExport is returned when the held result set is empty.
var ErrNothingToExport = errors.New("no profiles to export")

const filenamePrefix = "linkedin_profiles"

// Header returns the stable CSV header for ProfileResult.
func Header() []string {
	return []string{
		"name",
		"title",
		"snippet",
		"url",
		"email",
		"startDate",
		"duration",
		"search_company",
		"search_region",
	}
}

func fields(p profiles.ProfileResult) []string {
	out := []string{
		p.Name,
		p.Title,
		p.Snippet,
		p.URL,
		p.Email,
		p.StartDate,
		p.Duration,
		p.SearchCompany,
		p.SearchRegion,
	}
	for i, v := range out {
		out[i] = NormalizeLineBreaks(v)
	}
	return out
}

// NormalizeLineBreaks folds CRLF into LF. CSV readers drop the CR of a CRLF
// inside a quoted field, so exported values carry LF only and read back unchanged.
func NormalizeLineBreaks(v string) string {
	for strings.Contains(v, "\r\n") {
		v = strings.ReplaceAll(v, "\r\n", "\n")
	}
	return v
}

// FilterCompany returns the rows whose search_company equals company.
func FilterCompany(rows []profiles.ProfileResult, company string) []profiles.ProfileResult {
	var out []profiles.ProfileResult
	for _, r := range rows {
		if r.SearchCompany == company {
			out = append(out, r)
		}
	}
	return out
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ExportFilename names a download after the layout and the day it was produced.
//
// A non-empty company names a single-company export.
func ExportFilename(layout schema.Layout, company string, day time.Time) string {
	date := day.Format(time.DateOnly)
	if company != "" {
		slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(company), "_"), "_")
		if slug == "" {
			slug = "company"
		}
		return filenamePrefix + "_" + slug + "_" + date + ".csv"
	}
	if layout == schema.LayoutGrouped {
		return filenamePrefix + "_all_companies_" + date + ".csv"
	}
	return filenamePrefix + "_" + date + ".csv"
}
