package crawler

import (
	"net/url"
	"strings"

	"github.com/BishopFox/jsluice"
	"github.com/PuerkitoBio/goquery"

	"github.com/scntm/scanner/internal/model"
)

// linkAttrs enumerates every tag/attribute pair links are
// extracted from.
var linkAttrs = []struct {
	selector string
	attr     string
}{
	{"a[href]", "href"},
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"img[src]", "src"},
	{"iframe[src]", "src"},
	{"source[src]", "src"},
	{"video[src]", "src"},
	{"audio[src]", "src"},
	{"area[href]", "href"},
	{"[data-href]", "data-href"},
	{"[data-src]", "data-src"},
}

// extract parses body as HTML relative to pageURL and returns the
// deduplicated link set and the extracted forms.
func extract(pageURL string, body []byte) ([]string, []model.Form) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, nil
	}

	seen := map[string]bool{}
	var links []string
	addLink := func(raw string) {
		resolved := resolveSkippable(base, raw)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	}

	for _, la := range linkAttrs {
		doc.Find(la.selector).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(la.attr); ok {
				addLink(v)
			}
		})
	}

	doc.Find("[srcset]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("srcset"); ok {
			addLink(firstSrcsetCandidate(v))
		}
	})

	doc.Find(`meta[http-equiv]`).Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return
		}
		content, _ := s.Attr("content")
		addLink(parseMetaRefresh(content))
	})

	forms := extractForms(base, doc)
	for _, f := range forms {
		if f.Action != "" && !seen[f.Action] {
			seen[f.Action] = true
			links = append(links, f.Action)
		}
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			return // external scripts are followed as their own page fetch
		}
		for _, found := range jsluiceURLs(s.Text()) {
			addLink(found)
		}
	})

	return links, forms
}

// resolveSkippable resolves raw against base, returning "" for
// javascript:/mailto:/tel:/data:/fragment-only hrefs.
func resolveSkippable(base *url.URL, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func firstSrcsetCandidate(srcset string) string {
	parts := strings.Split(srcset, ",")
	if len(parts) == 0 {
		return ""
	}
	fields := strings.Fields(strings.TrimSpace(parts[0]))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseMetaRefresh(content string) string {
	idx := strings.Index(strings.ToLower(content), "url=")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(content[idx+len("url="):])
}

// extractForms walks every <form> and captures its action/method and its
// input/textarea/select fields in document order.
func extractForms(base *url.URL, doc *goquery.Document) []model.Form {
	var forms []model.Form

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		resolvedAction := base.String()
		if action != "" {
			if ref, err := url.Parse(action); err == nil {
				resolvedAction = base.ResolveReference(ref).String()
			}
		}

		method, ok := s.Attr("method")
		if !ok || method == "" {
			method = "GET"
		}
		method = strings.ToUpper(method)

		var inputs []model.FormInput
		s.Find("input,textarea,select").Each(func(_ int, fs *goquery.Selection) {
			name, ok := fs.Attr("name")
			if !ok || name == "" {
				return
			}
			fieldType, ok := fs.Attr("type")
			if !ok || fieldType == "" {
				fieldType = "text"
			}
			value, _ := fs.Attr("value")
			inputs = append(inputs, model.FormInput{
				Name:  name,
				Type:  fieldType,
				Value: value,
			})
		})

		forms = append(forms, model.Form{
			Action: resolvedAction,
			Method: method,
			Inputs: inputs,
		})
	})

	return forms
}

func jsluiceURLs(script string) []string {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	analyzer := jsluice.NewAnalyzer([]byte(script))
	var found []string
	for _, u := range analyzer.GetURLs() {
		if u.URL != "" {
			found = append(found, u.URL)
		}
	}
	return found
}
