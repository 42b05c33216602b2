package analyzer

import (
	"context"
	"strings"
	"testing"
)

func TestVisibleText(t *testing.T) {
	page := `<html><head><title>Head Title</title><style>body{color:red}</style></head>
<body>
<script>var hidden = "should not appear";</script>
<noscript>Enable JavaScript</noscript>
<h1>Visible Heading</h1>
<p>Body text here.</p>
</body></html>`

	got := VisibleText([]byte(page))
	for _, want := range []string{"Visible Heading", "Body text here."} {
		if !strings.Contains(got, want) {
			t.Errorf("VisibleText missing %q in %q", want, got)
		}
	}
	for _, banned := range []string{"should not appear", "Enable JavaScript", "color:red", "Head Title"} {
		if strings.Contains(got, banned) {
			t.Errorf("VisibleText leaked %q", banned)
		}
	}
}

func TestPageTitle(t *testing.T) {
	if got := PageTitle([]byte(`<html><head><title> My Page </title></head></html>`)); got != "My Page" {
		t.Errorf("PageTitle = %q", got)
	}
	if got := PageTitle([]byte(`<html><body>no title</body></html>`)); got != "" {
		t.Errorf("PageTitle on missing title = %q", got)
	}
}

func TestDetectRequiresJSStaticHeuristics(t *testing.T) {
	a := newTestAnalyzer()
	ctx := context.Background()

	spa := []byte(`<html><body><div id="root"></div></body></html>`)
	if !a.detectRequiresJS(ctx, "http://example.com", spa) {
		t.Error("empty SPA shell should require JS")
	}

	rich := []byte(`<html><body><p>` + strings.Repeat("plenty of static words here ", 20) + `</p></body></html>`)
	if a.detectRequiresJS(ctx, "http://example.com", rich) {
		t.Error("content-rich static page should not require JS")
	}
}
