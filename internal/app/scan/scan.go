package scan

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/veyra-labs/dpscan/internal/app/output"
	"github.com/veyra-labs/dpscan/internal/app/ui"
	"github.com/veyra-labs/dpscan/internal/config"
	"github.com/veyra-labs/dpscan/internal/crawler"
	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/registry"
	"github.com/veyra-labs/dpscan/internal/fetch"
	msges "github.com/veyra-labs/dpscan/internal/messages"
	"github.com/veyra-labs/dpscan/internal/report"
	"github.com/veyra-labs/dpscan/internal/store"
	"github.com/veyra-labs/dpscan/internal/tasks"
	"github.com/veyra-labs/dpscan/internal/urlsource"
	"github.com/veyra-labs/dpscan/internal/version"
)

// Options configures one batch run.
type Options struct {
	// Target is a single URL to analyze. Ignored when InputPath is set.
	Target string

	// InputPath is a CSV, JSON, or line-delimited file of URLs.
	InputPath string

	// AllowPrompts enables interactive confirmations, such as the
	// visible-browser warning.
	AllowPrompts bool

	Policy config.Policy
}

// Run analyzes every target URL, prints console results, and writes the
// configured report formats.
func Run(opts Options) error {
	policy := opts.Policy

	targets, err := resolveTargets(opts)
	if err != nil {
		return err
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			fmt.Println(ui.ColorYellow + msges.GetUIMessage("ScanCancelled") + ui.ColorReset)
			cancel()
		case <-ctx.Done():
		}
	}()

	// Visible-browser safety check
	if !policy.Fetch.Headless && opts.AllowPrompts {
		fmt.Printf("\n%s%s%s\n", ui.ColorYellow, msges.GetUIMessage("VisibleBrowserWarning"), ui.ColorReset)
		prompt := fmt.Sprintf("%s%s%s", ui.ColorYellow, msges.GetUIMessage("VisibleBrowserPrompt"), ui.ColorReset)
		confirmed, err := ui.Confirm(prompt)
		if err != nil || !confirmed {
			fmt.Printf("\n%s%s%s\n", ui.ColorYellow, msges.GetUIMessage("VisibleBrowserAborted"), ui.ColorReset)
			return fmt.Errorf("scan aborted by user")
		}
	}

	if opts.InputPath != "" {
		fmt.Printf("%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("BatchTarget", len(targets), opts.InputPath), ui.ColorReset)
	} else {
		fmt.Printf("%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("Target", targets[0]), ui.ColorReset)
	}
	if policy.Fetch.Headless {
		fmt.Printf("%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("ModeHeadless"), ui.ColorReset)
	} else {
		fmt.Printf("%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("ModeVisible"), ui.ColorReset)
	}
	fmt.Printf("%s%s%s\n", ui.ColorGray, msges.GetUIMessage("StatusReady"), ui.ColorReset)

	report.SetRedactionPatterns(policy.RedactionPatterns)

	fetcher, err := fetch.New(fetch.Options{
		Headless:         policy.Fetch.Headless,
		Timeout:          policy.Fetch.Timeout(),
		InteractionDelay: policy.Fetch.InteractionDelay(),
		ScreenshotDir:    filepath.Join(policy.OutputDir, "screenshots"),
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer fetcher.Close()

	reg := registry.Default(policy.Lexicons(), policy.Signals())
	severityTable := policy.SeverityTable()
	taskStore := tasks.NewStore()

	taskIDs := make([]string, len(targets))
	for i, t := range targets {
		taskIDs[i] = taskStore.Add(t)
	}

	startTime := time.Now()

	output.PrintScanProgress(0, len(targets), "Ready", "")

	workerCount := policy.Workers
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(targets) {
		workerCount = len(targets)
	}

	reportsByTarget := runBatch(ctx, targets, taskIDs, taskStore, workerCount,
		func(ctx context.Context, target string) ([]report.SiteReport, bool) {
			return analyzeTarget(ctx, target, fetcher, reg, severityTable, policy)
		})

	endTime := time.Now()
	cancelled := ctx.Err() != nil

	analyzedTargets := 0
	var allReports []report.SiteReport
	for _, rs := range reportsByTarget {
		if len(rs) > 0 {
			analyzedTargets++
		}
		for _, r := range rs {
			allReports = append(allReports, report.SanitizeSiteReport(r))
		}
	}
	if len(allReports) == 0 {
		fmt.Printf("\n%s%s%s\n", ui.ColorYellow, msges.GetUIMessage("ScanCancelled"), ui.ColorReset)
		return nil
	}

	if cancelled {
		fmt.Printf("\n%s%s%s\n", ui.ColorYellow, msges.GetUIMessage("ScanPartialResults", analyzedTargets, len(targets)), ui.ColorReset)
	} else {
		fmt.Printf("\n%s%s%s\n", ui.ColorGreen, msges.GetUIMessage("AllScansCompleted"), ui.ColorReset)
	}
	fmt.Printf("%sCompleted in %.2fs%s\n", ui.ColorGray, endTime.Sub(startTime).Seconds(), ui.ColorReset)

	for _, r := range allReports {
		output.PrintSiteReport(r)
	}
	output.PrintBatchSummary(allReports, reg.Detectors())

	for _, t := range taskStore.Failed() {
		gologger.Warning().Msgf("%s", msges.GetUIMessage("ScanFailed", t.URL, t.Error))
	}
	counts := taskStore.Counts()
	notStarted := counts[tasks.StatePending] + counts[tasks.StateRunning]
	fmt.Printf("%s%s%s\n", ui.ColorGray,
		msges.GetUIMessage("TaskSummary", counts[tasks.StateCompleted], counts[tasks.StateFailed], notStarted),
		ui.ColorReset)

	agg := report.Aggregate(allReports)
	saveReports(policy, agg, allReports, startTime, endTime)

	if policy.Database != "" {
		if err := persistReports(policy.Database, allReports); err != nil {
			fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("StoreFailed", err), ui.ColorReset)
		} else {
			fmt.Printf("%s\n", msges.GetUIMessage("ReportsStored", policy.Database))
		}
	}
	return nil
}

// runBatch feeds targets to a bounded worker pool and collects per-target
// reports in input order. Cancellation stops new work; reports from targets
// that already finished are kept so an aborted batch still gets a summary.
func runBatch(ctx context.Context, targets, taskIDs []string, taskStore *tasks.Store, workerCount int, analyze func(context.Context, string) ([]report.SiteReport, bool)) [][]report.SiteReport {
	reportsByTarget := make([][]report.SiteReport, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var completedCount int32

	type job struct {
		index  int
		target string
		taskID string
	}
	queue := make(chan job)

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-queue:
				if !ok {
					return
				}
				func() {
					defer func() {
						newCount := atomic.AddInt32(&completedCount, 1)
						output.PrintScanProgress(int(newCount), len(targets), "Analyzing", j.target)
					}()

					if ctx.Err() != nil {
						return
					}

					taskStore.Start(j.taskID)
					reports, failed := analyze(ctx, j.target)
					mu.Lock()
					reportsByTarget[j.index] = reports
					mu.Unlock()

					if failed {
						taskStore.Fail(j.taskID, fmt.Errorf("fetch failed"))
					} else {
						taskStore.Complete(j.taskID)
					}
				}()
			}
		}
	}

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go worker()
	}

enqueue:
	for i, t := range targets {
		select {
		case <-ctx.Done():
			break enqueue
		case queue <- job{index: i, target: t, taskID: taskIDs[i]}:
		}
	}
	close(queue)
	wg.Wait()

	return reportsByTarget
}

// analyzeTarget fetches the target (and, when crawling is enabled, its
// same-site pages) and converts each page into a site report. The second
// return value is true when the root page itself could not be fetched.
func analyzeTarget(ctx context.Context, target string, fetcher *fetch.Fetcher, reg *registry.Registry, severityTable report.SeverityWeights, policy config.Policy) ([]report.SiteReport, bool) {
	cr, err := crawler.New(target, policy.Depth, policy.MaxPages, fetcher.Fetch)
	if err != nil {
		return []report.SiteReport{report.NewFailedSiteReport(target, time.Now(), err)}, true
	}

	results := cr.Crawl(ctx)
	if len(results) == 0 {
		if ctx.Err() != nil {
			return nil, false
		}
		return []report.SiteReport{report.NewFailedSiteReport(target, time.Now(), fmt.Errorf("no pages fetched"))}, true
	}

	if extra := len(results) - 1; extra > 0 {
		gologger.Info().Msgf("%s", msges.GetUIMessage("DiscoveredPages", extra))
	}

	var reports []report.SiteReport
	rootFailed := false
	for i, res := range results {
		if res.Err != nil {
			gologger.Warning().Msgf("%s", msges.GetUIMessage("FetchFailed", res.URL, res.Err))
			reports = append(reports, report.NewFailedSiteReport(res.URL, time.Now(), res.Err))
			if i == 0 {
				rootFailed = true
			}
			continue
		}

		detections, detectorErrs := reg.RunAll(res.Page, policy.MinConfidence)
		r := report.NewSiteReport(res.URL, res.Page.Title, res.Page.FetchedAt, detections, severityTable)
		if len(detectorErrs) != 0 {
			r.DetectorErrors = make(map[detect.PatternType]string, len(detectorErrs))
			for t, err := range detectorErrs {
				r.DetectorErrors[t] = err.Error()
			}
		}
		reports = append(reports, r)
	}
	return reports, rootFailed
}

func saveReports(policy config.Policy, agg report.AggregateReport, reports []report.SiteReport, startTime, endTime time.Time) {
	for _, format := range policy.Formats {
		var path string
		var err error
		switch format {
		case "json":
			path, err = output.SaveJSON(policy.OutputDir, agg, reports, startTime, endTime)
		case "csv":
			path, err = output.SaveCSV(policy.OutputDir, reports)
		case "html":
			path, err = output.SaveHTML(policy.OutputDir, agg, reports, startTime, endTime)
		case "xlsx":
			path, err = output.SaveXLSX(policy.OutputDir, reports)
		default:
			continue
		}
		if err != nil {
			fmt.Printf("%s%s%s\n", ui.ColorRed, msges.GetUIMessage("ReportFailed", format, err), ui.ColorReset)
			continue
		}
		fmt.Printf("%s\n", msges.GetUIMessage("ReportSaved", strings.ToUpper(format), path))
	}
}

func persistReports(dbPath string, reports []report.SiteReport) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, r := range reports {
		if _, err := st.Save(r); err != nil {
			return err
		}
	}
	return nil
}

func resolveTargets(opts Options) ([]string, error) {
	if opts.InputPath != "" {
		records, err := urlsource.Load(opts.InputPath)
		if err != nil {
			return nil, err
		}
		targets := make([]string, 0, len(records))
		for _, rec := range records {
			targets = append(targets, rec.URL)
		}
		return targets, nil
	}

	target, err := normalizeTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	// Fast-fail for invalid/non-existent hosts to improve user feedback.
	if err := validateTargetHost(target); err != nil {
		return nil, fmt.Errorf("target is not reachable: %w", err)
	}
	return []string{target}, nil
}

func isHTTPSReachable(target string) bool {
	probe := target
	if !strings.HasPrefix(probe, "http://") && !strings.HasPrefix(probe, "https://") {
		probe = "https://" + probe
	}
	parsed, err := url.Parse(probe)
	if err != nil || parsed.Host == "" {
		return false
	}

	client := &http.Client{
		Timeout: 3 * time.Second,
	}
	httpsURL := &url.URL{
		Scheme: "https",
		Host:   parsed.Host,
		Path:   "/",
	}
	req, err := http.NewRequest(http.MethodHead, httpsURL.String(), nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := client.Do(req)
	if err == nil {
		resp.Body.Close()
		return true
	}
	return false
}

func normalizeTarget(rawTarget string) (string, error) {
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return "", fmt.Errorf("target is empty")
	}

	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if isHTTPSReachable(target) {
			target = "https://" + target
		} else {
			target = "http://" + target
		}
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("invalid target URL: missing host")
	}
	return parsed.String(), nil
}

func validateTargetHost(target string) error {
	parsed, err := url.Parse(target)
	if err != nil {
		return err
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("missing host")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("DNS lookup failed for %s: %w", host, err)
	}
	if len(ips) == 0 {
		return fmt.Errorf("no IP address found for %s", host)
	}

	port := parsed.Port()
	if port == "" {
		if strings.EqualFold(parsed.Scheme, "https") {
			port = "443"
		} else {
			port = "80"
		}
	}

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dialCancel()
	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("connection to %s failed: %w", net.JoinHostPort(host, port), err)
	}
	_ = conn.Close()
	return nil
}
