// Package templates renders the HTML pages of the web UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// DashboardData is everything the dashboard page shows.
type DashboardData struct {
	MailEnabled  bool
	LastSync     time.Time
	ActiveIngest int
	MaxIngest    int
	Codes        []string
	Navs         []NavRow
	Failures     []FailureRow
}

// NavRow is one line of the recent NAV table.
type NavRow struct {
	Code    string
	Name    string
	Date    string
	UnitNAV string
	Layout  string
	Source  string
}

// FailureRow is one line of the recent failures table.
type FailureRow struct {
	When   string
	File   string
	Sheet  string
	Reason string
	Code   string
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>navsync</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;margin-bottom:2rem}
th,td{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}
.alert{border:1px solid #c33;background:#fee;padding:.6rem;margin:1rem 0}
.muted{color:#777}
</style>
</head>
<body>
`

const pageTail = `</body>
</html>
`

// Dashboard renders the status page.
func Dashboard(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(pageHead)
		b.WriteString("<h1>navsync</h1>\n")

		b.WriteString(`<p>`)
		if d.MailEnabled {
			if d.LastSync.IsZero() {
				b.WriteString("Mailbox sync enabled, never synced.")
			} else {
				fmt.Fprintf(&b, "Last mailbox sync: %s.", esc(d.LastSync.Format(time.RFC3339)))
			}
		} else {
			b.WriteString(`<span class="muted">Mailbox sync disabled.</span>`)
		}
		fmt.Fprintf(&b, " Active ingests: %d/%d. Products on file: %d.</p>\n", d.ActiveIngest, d.MaxIngest, len(d.Codes))

		b.WriteString(`<form action="/api/ingest" method="post" enctype="multipart/form-data">` +
			`<input type="file" name="file" accept=".xlsx,.xlsm,.xls,.csv"> ` +
			`<button type="submit">Ingest</button></form>` + "\n")

		b.WriteString("<h2>Recent NAV</h2>\n")
		if len(d.Navs) == 0 {
			b.WriteString(`<p class="muted">No records yet.</p>` + "\n")
		} else {
			b.WriteString("<table><tr><th>Code</th><th>Name</th><th>Date</th><th>Unit NAV</th><th>Layout</th><th>Source</th></tr>\n")
			for _, n := range d.Navs {
				fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
					esc(n.Code), esc(n.Name), esc(n.Date), esc(n.UnitNAV), esc(n.Layout), esc(n.Source))
			}
			b.WriteString("</table>\n")
		}

		b.WriteString("<h2>Recent failures</h2>\n")
		if len(d.Failures) == 0 {
			b.WriteString(`<p class="muted">None.</p>` + "\n")
		} else {
			b.WriteString("<table><tr><th>When</th><th>File</th><th>Sheet</th><th>Reason</th><th>Code</th></tr>\n")
			for _, f := range d.Failures {
				fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
					esc(f.When), esc(f.File), esc(f.Sheet), esc(f.Reason), esc(f.Code))
			}
			b.WriteString("</table>\n")
		}

		b.WriteString(pageTail)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders an inline error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><strong>%s</strong> %s <span class="muted">(Code: %s)</span></div>`,
			esc(message), esc(action), esc(code))
		return err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}
