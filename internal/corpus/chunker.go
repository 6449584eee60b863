package corpus

import (
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/net/html"

	"github.com/patterson-s/EliteResearchAgent/internal/util"
)

// Chunker splits page HTML into overlapping word-window chunks
type Chunker struct {
	chunkWords   int
	overlapWords int
}

// NewChunker creates a chunker with the given window size and overlap.
// Overlap keeps a birth statement that straddles a window boundary visible
// in at least one chunk.
func NewChunker(chunkWords, overlapWords int) *Chunker {
	if chunkWords <= 0 {
		chunkWords = 400
	}
	if overlapWords < 0 || overlapWords >= chunkWords {
		overlapWords = chunkWords / 8
	}
	return &Chunker{
		chunkWords:   chunkWords,
		overlapWords: overlapWords,
	}
}

// ChunkHTML extracts visible text from an HTML page and splits it into
// chunks attributed to the person and URL.
func (c *Chunker) ChunkHTML(person, pageURL, htmlContent string) ([]Chunk, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	text := extractVisibleText(doc)
	return c.ChunkText(person, pageURL, text)
}

// ChunkText splits already-extracted plain text into chunks
func (c *Chunker) ChunkText(person, pageURL, text string) ([]Chunk, error) {
	domain, err := util.ExtractDomain(pageURL)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := c.chunkWords - c.overlapWords
	var chunks []Chunk
	for start, idx := 0, 0; start < len(words); start, idx = start+step, idx+1 {
		end := start + c.chunkWords
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, Chunk{
			ID:     chunkID(pageURL, domain, idx),
			Person: person,
			URL:    pageURL,
			Domain: domain,
			Index:  idx,
			Text:   strings.Join(words[start:end], " "),
		})

		if end == len(words) {
			break
		}
	}

	return chunks, nil
}

// chunkID builds a stable chunk identifier. The URL hash keeps two pages
// from the same domain from colliding.
func chunkID(pageURL, domain string, idx int) string {
	h := fnv.New32a()
	h.Write([]byte(pageURL))
	return fmt.Sprintf("%s-%08x#%d", domain, h.Sum32(), idx)
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
