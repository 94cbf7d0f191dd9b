package profiles

// DefaultMaxResults is used when an upload row has no usable "Max Results" value.
const DefaultMaxResults = 20

// StatusSuccess is the only ProcessingResponse status treated as success.
const StatusSuccess = "success"

// UploadRecord is one normalized row of the uploaded company list.
type UploadRecord struct {
	CompanyName string `json:"Company Name"`
	Region      string `json:"Region"`
	MaxResults  int    `json:"Max Results"`
}

// ProfileResult is one profile returned by the webhook.
//
// Everything is a string so rows survive a CSV round-trip unchanged.
type ProfileResult struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
	URL           string `json:"url"`
	Email         string `json:"email"`
	StartDate     string `json:"startDate"`
	Duration      string `json:"duration"`
	SearchCompany string `json:"search_company"`
	SearchRegion  string `json:"search_region"`
}

// ProcessingResponse is the webhook's reply.
//
// Profiles is nil when the key is missing or null; an empty JSON array decodes
// to a non-nil empty slice.
type ProcessingResponse struct {
	Status             string          `json:"status"`
	Message            string          `json:"message"`
	TotalCompanies     *int            `json:"totalCompanies,omitempty"`
	TotalProfiles      *int            `json:"totalProfiles,omitempty"`
	ProcessedCompanies []string        `json:"processedCompanies,omitempty"`
	Profiles           []ProfileResult `json:"profiles"`
	Timestamp          string          `json:"timestamp,omitempty"`
}

// Succeeded reports whether the response carries a usable result set.
func (r ProcessingResponse) Succeeded() bool {
	return r.Status == StatusSuccess && r.Profiles != nil
}

// Request is the envelope POSTed to the webhook.
type Request struct {
	Body []UploadRecord `json:"body"`
}

// IntPtr is a small helper for the optional counters.
func IntPtr(v int) *int {
	return &v
}
