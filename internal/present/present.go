// Package present turns a webhook response into displayable tables.
//
// Flat and grouped output are the same View with a different Layout.
package present

import (
	"fmt"
	"strings"
	"time"

	"github.com/shpitdev/profile-finder/pkg/pipeline/schema"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

// UnknownCompany labels profiles that came back without a search_company.
const UnknownCompany = "Unknown"

// Group is the ordered run of profiles sharing one search_company.
type Group struct {
	Company  string
	Profiles []profiles.ProfileResult
}

// Summary is the header shown above the tables.
type Summary struct {
	Companies          int
	Profiles           int
	ProcessedCompanies []string
	Elapsed            time.Duration
	Timestamp          string
	Message            string
}

// View is everything a renderer needs.
type View struct {
	Layout  schema.Layout
	Groups  []Group
	Summary Summary
}

// GroupByCompany partitions rows by search_company in first-seen order, keeping
// arrival order inside each group.
func GroupByCompany(rows []profiles.ProfileResult) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range rows {
		key := strings.TrimSpace(r.SearchCompany)
		if key == "" {
			key = UnknownCompany
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Company: key})
		}
		groups[i].Profiles = append(groups[i].Profiles, r)
	}
	return groups
}

// Summarize prefers the server's counters and falls back to counting.
func Summarize(resp profiles.ProcessingResponse, elapsed time.Duration) Summary {
	s := Summary{
		ProcessedCompanies: resp.ProcessedCompanies,
		Elapsed:            elapsed,
		Timestamp:          resp.Timestamp,
		Message:            resp.Message,
	}
	if resp.TotalProfiles != nil {
		s.Profiles = *resp.TotalProfiles
	} else {
		s.Profiles = len(resp.Profiles)
	}
	switch {
	case resp.TotalCompanies != nil:
		s.Companies = *resp.TotalCompanies
	case len(resp.ProcessedCompanies) > 0:
		s.Companies = len(resp.ProcessedCompanies)
	default:
		s.Companies = len(GroupByCompany(resp.Profiles))
	}
	return s
}

// NewView builds the view for layout.
func NewView(layout schema.Layout, resp profiles.ProcessingResponse, elapsed time.Duration) View {
	v := View{Layout: layout, Summary: Summarize(resp, elapsed)}
	if len(resp.Profiles) == 0 {
		return v
	}
	if layout == schema.LayoutGrouped {
		v.Groups = GroupByCompany(resp.Profiles)
		return v
	}
	v.Groups = []Group{{Profiles: resp.Profiles}}
	return v
}

// Rows returns every profile in display order.
func (v View) Rows() []profiles.ProfileResult {
	var out []profiles.ProfileResult
	for _, g := range v.Groups {
		out = append(out, g.Profiles...)
	}
	return out
}

// Empty reports whether there is nothing to show or export.
func (v View) Empty() bool {
	for _, g := range v.Groups {
		if len(g.Profiles) > 0 {
			return false
		}
	}
	return true
}

// ElapsedLabel formats an elapsed duration the way the summary prints it.
func ElapsedLabel(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
