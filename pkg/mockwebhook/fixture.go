package mockwebhook

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/shpitdev/profile-finder/pkg/profiles"
)

var (
	firstNames = []string{"Avery", "Jordan", "Riley", "Morgan", "Casey", "Quinn", "Taylor", "Harper"}
	lastNames  = []string{"Nguyen", "Okafor", "Silva", "Kowalski", "Haddad", "Tanaka", "Berg", "Moreau"}
	titles     = []string{"Head of Engineering", "Sales Director", "Product Manager", "Talent Partner", "CFO", "Staff Engineer"}
)

// FixtureSearcher fabricates deterministic profiles without touching the network.
type FixtureSearcher struct {
	// PerCompany caps the profiles produced per company. Zero means 3.
	PerCompany int
}

func (f FixtureSearcher) Search(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := f.PerCompany
	if n <= 0 {
		n = 3
	}
	if rec.MaxResults > 0 && rec.MaxResults < n {
		n = rec.MaxResults
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(rec.CompanyName + "|" + rec.Region)))
	seed := int(h.Sum32() & 0x7fffffff)

	domain := slug(rec.CompanyName) + ".example"
	out := make([]profiles.ProfileResult, 0, n)
	for i := 0; i < n; i++ {
		first := firstNames[(seed+i)%len(firstNames)]
		last := lastNames[(seed/7+i*3)%len(lastNames)]
		title := titles[(seed/13+i)%len(titles)]
		years := 1 + (seed+i)%6
		handle := strings.ToLower(first + "-" + last)
		out = append(out, profiles.ProfileResult{
			Name:      first + " " + last,
			Title:     title + " at " + rec.CompanyName,
			Snippet:   fmt.Sprintf("%s · %s · %s", title, rec.CompanyName, rec.Region),
			URL:       "https://www.linkedin.com/in/" + handle,
			Email:     strings.ToLower(first) + "." + strings.ToLower(last) + "@" + domain,
			StartDate: fmt.Sprintf("%d-%02d", 2025-years, 1+(seed+i)%12),
			Duration:  fmt.Sprintf("%d yrs", years),
		})
	}
	return out, nil
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "company"
	}
	return b.String()
}
