package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var spaceBeforeNewline = regexp.MustCompile(`\s+\n`)
var manyNewlines = regexp.MustCompile(`\n{3,}`)
var anyTag = regexp.MustCompile(`<[^>]+>`)
var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

// StripHTML turns an html fragment (store descriptions) into plain text,
// <br> become newlines and every other tag is dropped.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	var text string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		text = anyTag.ReplaceAllString(brTag.ReplaceAllString(fragment, "\n"), "")
	} else {
		doc.Find("br").Each(func(_ int, s *goquery.Selection) {
			for _, n := range s.Nodes {
				if n.Parent == nil {
					continue
				}
				n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: "\n"}, n)
			}
		})
		doc.Find("br").Remove()
		doc.Find("script, style").Remove()
		text = GetText(doc.Get(0))
	}

	text = spaceBeforeNewline.ReplaceAllString(text, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
