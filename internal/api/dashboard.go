package api

import (
	"bytes"
	"html/template"
	"log"
	"net/http"

	"github.com/ignite/open-tracker/internal/tracker"
)

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Email Tracking Dashboard</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; color: #222; }
h1 { font-size: 22px; }
table { border-collapse: collapse; width: 100%; margin-top: 20px; }
th, td { border: 1px solid #ddd; padding: 8px 12px; text-align: left; vertical-align: top; }
th { background: #f4f4f4; }
.events { margin: 0; padding-left: 18px; }
.none { color: #999; }
</style>
</head>
<body>
<h1>Email Tracking Dashboard</h1>
<p>{{len .}} registered email(s)</p>
<table>
<tr><th>Recipient</th><th>Subject</th><th>Sent</th><th>Opens</th><th>Open Events</th></tr>
{{range .}}
<tr>
<td>{{.Recipient}}</td>
<td>{{.Subject}}</td>
<td>{{.SentAt.Format "2006-01-02 15:04:05 MST"}}</td>
<td>{{len .Events}}</td>
<td>
{{if .Events}}<ul class="events">{{range .Events}}
<li>{{.OpenedAt.Format "2006-01-02 15:04:05 MST"}} &mdash; {{.IPAddress}} ({{.UserAgent}})</li>
{{end}}</ul>{{else}}<span class="none">not opened</span>{{end}}
</td>
</tr>
{{end}}
</table>
</body>
</html>
`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// renderDashboard executes the template into a buffer first so a render
// failure never produces a half-written page.
func renderDashboard(w http.ResponseWriter, reports []*tracker.RegistrationReport) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, reports); err != nil {
		log.Printf("ERROR rendering dashboard: %v", err)
		http.Error(w, "could not render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
