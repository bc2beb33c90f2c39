// CLAUDE:SUMMARY Scrapes status and summary out of a LIS bill-details page.
package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// detailPage holds the fields scraped from one bill-details page.
type detailPage struct {
	Status  string
	Summary string
}

// parseDetailPage walks the DOM of a bill-details page. The status lives in
// an element whose class mentions "status"; the summary in an element whose
// class mentions "summary", falling back to the first paragraph under
// <main>. Scripts, styles and navigation chrome are skipped.
func parseDetailPage(data []byte) (*detailPage, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	page := &detailPage{}
	var firstMainPara string

	var walk func(n *html.Node, inMain bool)
	walk = func(n *html.Node, inMain bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Header, atom.Footer:
				return
			case atom.Main:
				inMain = true
			}

			cls := classAttr(n)
			if page.Status == "" && strings.Contains(cls, "status") {
				page.Status = nodeText(n)
			}
			if page.Summary == "" && strings.Contains(cls, "summary") {
				page.Summary = nodeText(n)
			}
			if inMain && firstMainPara == "" && n.DataAtom == atom.P {
				firstMainPara = nodeText(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inMain)
		}
	}
	walk(doc, false)

	if page.Summary == "" {
		page.Summary = firstMainPara
	}
	return page, nil
}

func classAttr(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

// nodeText collects the visible text of a subtree, whitespace-normalized.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
