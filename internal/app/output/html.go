package output

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/veyra-labs/dpscan/internal/detect"
	msges "github.com/veyra-labs/dpscan/internal/messages"
	"github.com/veyra-labs/dpscan/internal/report"
)

type templateDetection struct {
	Title       string
	Description string
	Suggestion  string
	Type        string
	Confidence  string
	Band        string
	Location    string
	Evidence    string
	Screenshot  string
}

type templateSite struct {
	URL        string
	Title      string
	Severity   string
	Band       string
	AnalyzedAt string
	Failed     bool
	FetchError string
	Detections []templateDetection
}

type distributionRow struct {
	Title string
	Type  string
	Count int
}

type topSiteRow struct {
	URL      string
	Count    int
	Severity string
}

type pairRow struct {
	First  string
	Second string
	Count  int
}

type htmlReportData struct {
	GeneratedAt  string
	Duration     string
	TotalSites   int
	TotalURLs    int
	FailedSites  int
	Detections   int
	Distribution []distributionRow
	TopSites     []topSiteRow
	Pairs        []pairRow
	Sites        []templateSite
}

// SaveHTML writes a self-contained HTML batch report to dir and returns
// the file path.
func SaveHTML(dir string, agg report.AggregateReport, sites []report.SiteReport, startTime, endTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("dpscan_report_%s.html", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data := htmlReportData{
		GeneratedAt: agg.GeneratedAt.Format("2006-01-02 15:04:05"),
		Duration:    endTime.Sub(startTime).String(),
		TotalSites:  agg.TotalSites,
		TotalURLs:   agg.TotalURLs,
		FailedSites: agg.FailedSites,
		Detections:  agg.TotalDetections,
	}

	for _, t := range detect.AllPatternTypes {
		count := agg.PatternDistribution[t]
		data.Distribution = append(data.Distribution, distributionRow{
			Title: msges.GetPattern(t).Title,
			Type:  string(t),
			Count: count,
		})
	}
	sort.SliceStable(data.Distribution, func(i, j int) bool {
		if data.Distribution[i].Count == data.Distribution[j].Count {
			return data.Distribution[i].Type < data.Distribution[j].Type
		}
		return data.Distribution[i].Count > data.Distribution[j].Count
	})

	for _, s := range agg.TopSites {
		data.TopSites = append(data.TopSites, topSiteRow{
			URL:      s.URL,
			Count:    s.Detections,
			Severity: fmt.Sprintf("%.1f", s.Severity),
		})
	}
	for _, p := range agg.CoOccurrence {
		data.Pairs = append(data.Pairs, pairRow{
			First:  msges.GetPattern(p.First).Title,
			Second: msges.GetPattern(p.Second).Title,
			Count:  p.Count,
		})
	}

	ordered := append([]report.SiteReport(nil), sites...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SeverityScore == ordered[j].SeverityScore {
			return ordered[i].URL < ordered[j].URL
		}
		return ordered[i].SeverityScore > ordered[j].SeverityScore
	})

	for _, s := range ordered {
		ts := templateSite{
			URL:        s.URL,
			Title:      s.Title,
			Severity:   fmt.Sprintf("%.1f", s.SeverityScore),
			Band:       severityBand(s.SeverityScore),
			AnalyzedAt: s.Timestamp.Format("2006-01-02 15:04:05"),
			Failed:     s.Failed,
			FetchError: s.FetchError,
		}
		detections := append([]detect.Detection(nil), s.Detections...)
		sort.SliceStable(detections, func(i, j int) bool {
			if detections[i].Confidence == detections[j].Confidence {
				return detections[i].Type < detections[j].Type
			}
			return detections[i].Confidence > detections[j].Confidence
		})
		for _, d := range detections {
			detail := msges.GetPattern(d.Type)
			ts.Detections = append(ts.Detections, templateDetection{
				Title:       detail.Title,
				Description: detail.Description,
				Suggestion:  detail.Suggestion,
				Type:        string(d.Type),
				Confidence:  fmt.Sprintf("%.2f", d.Confidence),
				Band:        confidenceBand(d.Confidence),
				Location:    d.Location,
				Evidence:    formatEvidence(d.Evidence),
				Screenshot:  d.ScreenshotRef,
			})
		}
		data.Sites = append(data.Sites, ts)
	}

	t, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}
	if err := t.Execute(f, data); err != nil {
		return "", err
	}
	return path, nil
}

func severityBand(score float64) string {
	switch {
	case score >= 7:
		return "HIGH"
	case score >= 4:
		return "MEDIUM"
	case score > 0:
		return "LOW"
	default:
		return "CLEAN"
	}
}

func confidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "HIGH"
	case confidence >= 0.7:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Dark Pattern Report</title>
    <style>
        :root {
            --bg: #ffffff;
            --surface: #ffffff;
            --surface-soft: #fbfcfe;
            --text: #16324d;
            --muted: #5b738c;
            --line: #d9e1ea;
            --high: #d64545;
            --medium: #e6a900;
            --low: #1d6eea;
            --clean: #3f9f5f;
            --radius-lg: 16px;
            --radius-md: 12px;
            --shadow-1: 0 8px 20px rgba(16, 53, 88, 0.08);
            --shadow-2: 0 2px 8px rgba(16, 53, 88, 0.06);
        }
        * { box-sizing: border-box; }
        body {
            font-family: "Segoe UI", "Inter", "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: var(--text);
            margin: 0;
            padding: 28px 16px 40px;
            background: var(--bg);
        }
        .page { max-width: 1240px; margin: 0 auto; }
        h1, h2, h3 { margin: 0; color: #0b3d6e; }
        p { margin: 0.25rem 0; }
        .surface {
            background: var(--surface);
            border: 1px solid rgba(36, 93, 148, 0.08);
            border-radius: var(--radius-lg);
            box-shadow: var(--shadow-1);
        }
        .header { padding: 28px 28px 22px; margin-bottom: 20px; border: 1px solid var(--line); }
        .header-meta {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(240px, 1fr));
            gap: 8px 16px;
            margin-top: 12px;
            color: var(--muted);
        }
        .summary-cards {
            display: grid;
            grid-template-columns: repeat(4, 1fr);
            gap: 14px;
            margin-bottom: 20px;
        }
        .card {
            background: linear-gradient(180deg, #ffffff, var(--surface-soft));
            border: 1px solid var(--line);
            border-radius: var(--radius-md);
            box-shadow: var(--shadow-2);
            padding: 20px;
            text-align: center;
        }
        .card h3 { margin: 0; font-size: 2rem; line-height: 1; }
        .card p { margin: 0; color: var(--muted); font-weight: 600; }
        .summary-table-wrap {
            padding: 20px;
            margin-bottom: 20px;
            border: 1px solid var(--line);
            border-radius: var(--radius-md);
            background: var(--surface);
        }
        table { width: 100%; border-collapse: collapse; margin-top: 10px; font-size: .95rem; }
        th, td { border-bottom: 1px solid #e7edf4; padding: 8px 10px; text-align: right; }
        th:first-child, td:first-child { text-align: left; }
        thead th { background: #f5f9fd; color: #285b8a; font-weight: 700; }
        code {
            background: #f2f8ff;
            padding: 2px 6px;
            border-radius: 6px;
            border: 1px solid var(--line);
            font-family: Consolas, Monaco, monospace;
            word-break: break-all;
        }
        .site {
            background: linear-gradient(180deg, #ffffff 0%, #fbfdff 100%);
            padding: 18px;
            border-radius: var(--radius-md);
            box-shadow: var(--shadow-2);
            margin-bottom: 14px;
            border: 1px solid var(--line);
            border-left: 6px solid #a7b7c7;
        }
        .site.HIGH { border-left-color: var(--high); }
        .site.MEDIUM { border-left-color: var(--medium); }
        .site.LOW { border-left-color: var(--low); }
        .site.CLEAN { border-left-color: var(--clean); }
        .site-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px; }
        .severity-badge {
            padding: 5px 10px;
            border-radius: 999px;
            color: #fff;
            font-weight: 700;
            font-size: 0.76rem;
            letter-spacing: .03em;
        }
        .bg-HIGH { background-color: var(--high); }
        .bg-MEDIUM { background-color: var(--medium); color: #1d1d1d; }
        .bg-LOW { background-color: var(--low); }
        .bg-CLEAN { background-color: var(--clean); }
        .detection {
            border: 1px solid var(--line);
            border-radius: 10px;
            padding: 12px 14px;
            margin-top: 10px;
            background: #f7fbff;
        }
        .detection-header { display: flex; justify-content: space-between; align-items: center; }
        .label { font-weight: 700; color: #35506c; }
        .suggestion-box {
            padding: 10px 12px;
            border-radius: 10px;
            margin-top: 10px;
            border: 1px solid var(--line);
            border-left: 5px solid #3f9f5f;
            background: #edf9f0;
            color: #245f38;
        }
        .error-box {
            padding: 10px 12px;
            border-radius: 10px;
            border: 1px solid var(--line);
            border-left: 5px solid var(--high);
            background: #fdf1f1;
            color: #8f2f2f;
        }
        .muted { color: var(--muted); font-size: .9rem; }
        @media (max-width: 640px) {
            .summary-cards { grid-template-columns: 1fr 1fr; }
            .header { padding: 20px 16px 16px; }
        }
    </style>
</head>
<body>
    <div class="page">
    <div class="header surface">
        <h1>Dark Pattern Report</h1>
        <div class="header-meta">
            <p><strong>Generated:</strong> {{.GeneratedAt}}</p>
            <p><strong>Duration:</strong> {{.Duration}}</p>
        </div>
    </div>

    <div class="summary-cards">
        <div class="card"><h3>{{.TotalSites}}</h3><p>Sites</p></div>
        <div class="card"><h3>{{.TotalURLs}}</h3><p>Pages</p></div>
        <div class="card"><h3>{{.Detections}}</h3><p>Detections</p></div>
        <div class="card"><h3>{{.FailedSites}}</h3><p>Failed</p></div>
    </div>

    <div class="summary-table-wrap">
        <h3>Pattern Distribution</h3>
        <table>
            <thead><tr><th>Pattern</th><th>Detections</th></tr></thead>
            <tbody>
                {{range .Distribution}}
                <tr><td>{{.Title}} <span class="muted">({{.Type}})</span></td><td>{{.Count}}</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>

    <div class="summary-table-wrap">
        <h3>Most Affected Sites</h3>
        <table>
            <thead><tr><th>URL</th><th>Detections</th><th>Severity</th></tr></thead>
            <tbody>
                {{range .TopSites}}
                <tr><td><code>{{.URL}}</code></td><td>{{.Count}}</td><td>{{.Severity}}</td></tr>
                {{else}}
                <tr><td colspan="3">No detections in this batch.</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>

    <div class="summary-table-wrap">
        <h3>Pattern Co-occurrence</h3>
        <table>
            <thead><tr><th>Pattern Pair</th><th>Pages</th></tr></thead>
            <tbody>
                {{range .Pairs}}
                <tr><td>{{.First}} + {{.Second}}</td><td>{{.Count}}</td></tr>
                {{else}}
                <tr><td colspan="2">No pages with multiple pattern types.</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>

    <h2 style="margin: 20px 0 12px;">Analyzed Pages</h2>
    {{range .Sites}}
    <div class="site {{.Band}}">
        <div class="site-header">
            <h3><code>{{.URL}}</code></h3>
            <span class="severity-badge bg-{{.Band}}">Severity {{.Severity}}</span>
        </div>
        {{if .Title}}<p><span class="label">Title:</span> {{.Title}}</p>{{end}}
        <p class="muted">Analyzed at {{.AnalyzedAt}}</p>
        {{if .Failed}}
        <div class="error-box">{{.FetchError}}</div>
        {{else if not .Detections}}
        <p style="color: #2d7f4a;">No dark patterns detected.</p>
        {{else}}
        {{range .Detections}}
        <div class="detection">
            <div class="detection-header">
                <strong>{{.Title}}</strong>
                <span class="severity-badge bg-{{.Band}}">{{.Confidence}}</span>
            </div>
            <p>{{.Description}}</p>
            {{if .Location}}<p><span class="label">Location:</span> <code>{{.Location}}</code></p>{{end}}
            {{if .Evidence}}<p><span class="label">Evidence:</span> <code>{{.Evidence}}</code></p>{{end}}
            {{if .Screenshot}}<p class="muted">Screenshot: {{.Screenshot}}</p>{{end}}
            <div class="suggestion-box">{{.Suggestion}}</div>
        </div>
        {{end}}
        {{end}}
    </div>
    {{end}}
    </div>
</body>
</html>
`
