package analyzer

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/scout/models"
)

// searchWords are tokens whose presence in a form or input attribute is
// evidence the element drives site search.
var searchWords = []string{"search", "query", "find", "suche", "buscar", "recherche", "busca"}

// knownSearchParams are parameter names commonly bound to search text,
// checked exactly against input names.
var knownSearchParams = []string{"q", "s", "query", "search", "keyword", "keywords", "term", "wd", "text"}

// FieldConfidence scores how likely an input element is a search field,
// in [0,1]. It is a pure function of the element's attributes so the
// rubric stays testable without a DOM.
func FieldConfidence(inputType, name, id, placeholder, ariaLabel string) float64 {
	if t := strings.ToLower(inputType); t != "" && t != "text" && t != "search" {
		return 0
	}
	score := 0.0
	if strings.EqualFold(inputType, "search") {
		score += 0.6
	}
	name = strings.ToLower(name)
	for _, p := range knownSearchParams {
		if name == p {
			score += 0.5
			break
		}
	}
	for _, w := range searchWords {
		if strings.Contains(name, w) {
			score += 0.3
			break
		}
	}
	haystack := strings.ToLower(id + " " + placeholder + " " + ariaLabel)
	for _, w := range searchWords {
		if strings.Contains(haystack, w) {
			score += 0.3
			break
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// detectForms scans the document for search forms and returns discovered
// endpoints plus the parameter set they bind search text to.
func (a *Analyzer) detectForms(doc *goquery.Document, baseURL string) ([]models.SearchEndpoint, map[string]string) {
	var endpoints []models.SearchEndpoint
	params := map[string]string{}

	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		action, _ := form.Attr("action")
		method := strings.ToUpper(strings.TrimSpace(attrOr(form, "method", "GET")))
		if method != "POST" {
			method = "GET"
		}

		formHint := false
		hint := strings.ToLower(action + " " + attrOr(form, "id", "") + " " + attrOr(form, "class", "") + " " + attrOr(form, "role", ""))
		for _, w := range searchWords {
			if strings.Contains(hint, w) {
				formHint = true
				break
			}
		}

		form.Find("input").Each(func(_ int, input *goquery.Selection) {
			conf := FieldConfidence(
				attrOr(input, "type", "text"),
				attrOr(input, "name", ""),
				attrOr(input, "id", ""),
				attrOr(input, "placeholder", ""),
				attrOr(input, "aria-label", ""),
			)
			if formHint && conf > 0 {
				conf += 0.3
			}
			if conf < a.cfg.FieldConfidence {
				return
			}
			name := attrOr(input, "name", "")
			if name == "" {
				return
			}
			endpoints = append(endpoints, models.SearchEndpoint{
				URL:      resolveURL(baseURL, action),
				Method:   method,
				Param:    name,
				Selector: inputSelector(input),
			})
			params[name] = ""
		})
	})

	return endpoints, params
}

// inputSelector builds a CSS selector that re-finds the input element
// from a rendered page.
func inputSelector(input *goquery.Selection) string {
	if id := attrOr(input, "id", ""); id != "" {
		return "#" + id
	}
	if name := attrOr(input, "name", ""); name != "" {
		return `input[name="` + name + `"]`
	}
	if t := attrOr(input, "type", ""); t != "" {
		return `input[type="` + t + `"]`
	}
	return "input"
}

func attrOr(s *goquery.Selection, name, fallback string) string {
	if v, ok := s.Attr(name); ok {
		return v
	}
	return fallback
}

// resolveURL resolves ref against base. An empty ref means the form
// submits to the page itself.
func resolveURL(base, ref string) string {
	if ref == "" {
		return base
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
