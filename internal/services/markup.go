package services

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxMarkupRunes caps how much captured markup goes into one prompt.
const MaxMarkupRunes = 40000

// Table parts and list items only survive parsing inside their parent.
var fragmentParents = map[atom.Atom]atom.Atom{
	atom.Tr:       atom.Tbody,
	atom.Td:       atom.Tr,
	atom.Th:       atom.Tr,
	atom.Thead:    atom.Table,
	atom.Tbody:    atom.Table,
	atom.Tfoot:    atom.Table,
	atom.Caption:  atom.Table,
	atom.Colgroup: atom.Table,
	atom.Col:      atom.Colgroup,
	atom.Li:       atom.Ul,
	atom.Option:   atom.Select,
	atom.Optgroup: atom.Select,
}

// SanitizeMarkup drops elements that carry no job data and truncates the
// result. Input that fails to parse is only truncated.
func SanitizeMarkup(markup string) string {
	if cleaned, ok := stripFragment(markup); ok {
		markup = cleaned
	}
	return truncateRunes(strings.TrimSpace(markup), MaxMarkupRunes)
}

func stripFragment(markup string) (string, bool) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext(markup))
	if err != nil {
		return "", false
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	goquery.NewDocumentFromNode(root).Find("script, style, noscript, svg").Remove()

	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", false
		}
	}
	return b.String(), true
}

// fragmentContext picks the element the fragment is parsed inside, based
// on its first start tag.
func fragmentContext(markup string) *html.Node {
	parent := atom.Body
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			if p, ok := fragmentParents[atom.Lookup(name)]; ok {
				parent = p
			}
			break
		}
	}
	return &html.Node{Type: html.ElementNode, Data: parent.String(), DataAtom: parent}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
