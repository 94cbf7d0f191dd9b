package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const snippetWidth = 60

// RenderText writes the summary and one table per group to w.
func RenderText(w io.Writer, v View) error {
	s := v.Summary
	if _, err := fmt.Fprintf(w, "Companies: %d  Profiles: %d  Time: %s\n", s.Companies, s.Profiles, ElapsedLabel(s.Elapsed)); err != nil {
		return err
	}
	if v.Empty() {
		_, err := fmt.Fprintln(w, "No profiles found.")
		return err
	}

	for _, g := range v.Groups {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(w)
		if g.Company != "" {
			t.SetTitle(fmt.Sprintf("%s (%d)", g.Company, len(g.Profiles)))
		}
		t.AppendHeader(table.Row{"#", "Name", "Title", "Company", "Region", "Email", "Start", "Duration", "URL", "Snippet"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{
				Number:           10,
				WidthMax:         snippetWidth,
				WidthMaxEnforcer: text.Trim,
				Transformer: func(val interface{}) string {
					return strings.Join(strings.Fields(fmt.Sprint(val)), " ")
				},
			},
		})
		for i, p := range g.Profiles {
			t.AppendRow(table.Row{
				i + 1,
				p.Name,
				p.Title,
				p.SearchCompany,
				p.SearchRegion,
				p.Email,
				p.StartDate,
				p.Duration,
				p.URL,
				p.Snippet,
			})
		}
		t.Render()
	}
	return nil
}
