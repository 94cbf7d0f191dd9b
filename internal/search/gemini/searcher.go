package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Searcher looks up public LinkedIn profiles for one company using Gemini with
// Google Search grounding.
type Searcher struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Searcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Searcher{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

type responseSchema struct {
	Profiles []struct {
		Name      string `json:"name"`
		Title     string `json:"title"`
		Snippet   string `json:"snippet"`
		URL       string `json:"url"`
		Email     string `json:"email"`
		StartDate string `json:"start_date"`
		Duration  string `json:"duration"`
	} `json:"profiles"`
}

var profileSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":       {Type: genai.TypeString},
		"title":      {Type: genai.TypeString},
		"snippet":    {Type: genai.TypeString},
		"url":        {Type: genai.TypeString},
		"email":      {Type: genai.TypeString},
		"start_date": {Type: genai.TypeString},
		"duration":   {Type: genai.TypeString},
	},
	Required: []string{"name", "title", "url"},
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"profiles": {Type: genai.TypeArray, Items: profileSchema},
	},
	Required: []string{"profiles"},
}

func (s *Searcher) Search(ctx context.Context, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
	if strings.TrimSpace(rec.CompanyName) == "" {
		return nil, errors.New("empty company name")
	}

	resp, err := s.client.Models.GenerateContent(
		ctx,
		s.model,
		genai.Text(buildPrompt(rec)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}
	return parseProfiles(resp.Text(), rec)
}

func buildPrompt(rec profiles.UploadRecord) string {
	limit := rec.MaxResults
	if limit <= 0 {
		limit = profiles.DefaultMaxResults
	}
	return strings.TrimSpace(`
You are a research tool. Use web search to find public LinkedIn profiles of people who currently work at the company below.

Return ONLY a single JSON object with a "profiles" array. Each entry has:
- name (string)
- title (string; current job title)
- snippet (string; one short sentence from the public profile or search result)
- url (string; the linkedin.com/in/ profile URL)
- email (string; only if publicly listed, else empty)
- start_date (string; when they started at the company, else empty)
- duration (string; time at the company, e.g. "2 yrs 3 mos", else empty)

Rules:
- Return at most ` + strconv.Itoa(limit) + ` profiles.
- Only include people whose profile URL you actually found.
- If you cannot find a field, set it to an empty string.

Company: ` + rec.CompanyName + `
Region: ` + rec.Region + `
`)
}

// parseProfiles decodes the structured reply, drops entries without a profile
// URL and stamps the search keys.
func parseProfiles(text string, rec profiles.UploadRecord) ([]profiles.ProfileResult, error) {
	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	limit := rec.MaxResults
	if limit <= 0 {
		limit = profiles.DefaultMaxResults
	}
	out := make([]profiles.ProfileResult, 0, len(parsed.Profiles))
	seen := make(map[string]struct{}, len(parsed.Profiles))
	for _, p := range parsed.Profiles {
		url := strings.TrimSpace(p.URL)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, profiles.ProfileResult{
			Name:          strings.TrimSpace(p.Name),
			Title:         strings.TrimSpace(p.Title),
			Snippet:       strings.TrimSpace(p.Snippet),
			URL:           url,
			Email:         strings.TrimSpace(p.Email),
			StartDate:     strings.TrimSpace(p.StartDate),
			Duration:      strings.TrimSpace(p.Duration),
			SearchCompany: rec.CompanyName,
			SearchRegion:  rec.Region,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func classifyErr(err error) error {
	// Wrap transient failures so the worker pool will retry with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: err}
	}
	return err
}
