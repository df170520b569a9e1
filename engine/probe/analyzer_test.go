package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Kenfack-franck/jobHunterAi/pkg/httpx"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	client, err := httpx.New(httpx.Options{})
	if err != nil {
		t.Fatalf("httpx.New: %v", err)
	}
	return NewAnalyzer(client)
}

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeCareersPage(t *testing.T) {
	srv := serve(t, "text/html", `<html><body>
		<h1>Careers at Acme</h1>
		<div class="job-card"><a href="/jobs/1">Backend Engineer</a></div>
		<div class="job-card"><a href="/jobs/2">Data Engineer</a></div>
	</body></html>`)

	a := newTestAnalyzer(t).Analyze(context.Background(), srv.URL)

	if !a.IsAccessible {
		t.Fatalf("expected accessible: %+v", a)
	}
	if a.ContentType != ContentHTML {
		t.Fatalf("expected html, got %s", a.ContentType)
	}
	if !a.HasJobs {
		t.Fatalf("job keywords not detected: %+v", a)
	}
	if a.HasAntiBot {
		t.Fatalf("false anti-bot positive: %v", a.AntiBotIndicators)
	}
	if !a.IsScrapable {
		t.Fatal("expected scrapable verdict")
	}
	if a.EstimatedJobCount == 0 {
		t.Fatal("expected a job element estimate")
	}
	if !strings.Contains(a.Recommendation, "Scraping is possible") {
		t.Fatalf("unexpected recommendation: %q", a.Recommendation)
	}
}

func TestAnalyzeJSONAPI(t *testing.T) {
	srv := serve(t, "application/json", `{"jobs":[{"title":"Go Developer","position":"backend"}]}`)

	a := newTestAnalyzer(t).Analyze(context.Background(), srv.URL)

	if a.ContentType != ContentJSON || !a.HasJobs || !a.IsScrapable {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if !strings.Contains(a.Recommendation, "JSON API") {
		t.Fatalf("unexpected recommendation: %q", a.Recommendation)
	}
}

func TestAnalyzeAntiBotBeatsJobs(t *testing.T) {
	srv := serve(t, "text/html", `<html><body>
		<p>Checking your browser. Cloudflare needs to verify a captcha.</p>
		<div class="job-listing">Software Engineer position</div>
	</body></html>`)

	a := newTestAnalyzer(t).Analyze(context.Background(), srv.URL)

	if !a.HasJobs {
		t.Fatalf("job keywords should still be reported: %+v", a)
	}
	if !a.HasAntiBot {
		t.Fatalf("anti-bot markers missed: %+v", a)
	}
	if a.IsScrapable {
		t.Fatal("anti-bot page must not be scrapable")
	}
	if !strings.Contains(a.Recommendation, "Anti-bot") {
		t.Fatalf("unexpected recommendation: %q", a.Recommendation)
	}
}

func TestAnalyzeNoJobContent(t *testing.T) {
	srv := serve(t, "text/html", `<html><body><h1>Welcome to our bakery</h1></body></html>`)

	a := newTestAnalyzer(t).Analyze(context.Background(), srv.URL)

	if a.HasJobs || a.IsScrapable {
		t.Fatalf("bakery page classified as careers page: %+v", a)
	}
	if !strings.Contains(a.Recommendation, "No job content") {
		t.Fatalf("unexpected recommendation: %q", a.Recommendation)
	}
}

func TestAnalyzeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	a := newTestAnalyzer(t).Analyze(context.Background(), srv.URL)

	if a.IsAccessible || a.IsScrapable {
		t.Fatalf("404 reported accessible: %+v", a)
	}
	if a.Error != "HTTP 404" {
		t.Fatalf("unexpected error field: %q", a.Error)
	}
	if a.Recommendation != "URL is not reachable." {
		t.Fatalf("unexpected recommendation: %q", a.Recommendation)
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := newTestAnalyzer(t).Analyze(context.Background(), srv.URL)

	if a.IsAccessible {
		t.Fatalf("closed server reported accessible: %+v", a)
	}
	if a.Error == "" || a.Recommendation != "URL is not reachable." {
		t.Fatalf("unexpected analysis: %+v", a)
	}
}

func TestAnalyzeNeverErrorsOnGarbageURL(t *testing.T) {
	a := newTestAnalyzer(t).Analyze(context.Background(), "http://\x7f")
	if a.IsAccessible || a.Error == "" {
		t.Fatalf("garbage URL should produce a negative analysis: %+v", a)
	}
}

func TestEstimateJobElementsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 40; i++ {
		b.WriteString(`<a href="/jobs/`)
		b.WriteByte(byte('a' + i%26))
		b.WriteString(`">posting</a>`)
	}
	b.WriteString("</body></html>")

	if got := estimateJobElements(strings.NewReader(b.String())); got != 20 {
		t.Fatalf("expected cap of 20, got %d", got)
	}
}
