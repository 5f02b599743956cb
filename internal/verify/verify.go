// Package verify walks doxygen's HTML output and reports local link targets
// that do not exist under the output tree.
package verify

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// BrokenLink is one unresolvable local reference in a generated page.
type BrokenLink struct {
	Page   string // page containing the reference, relative to the output root
	Target string // the href/src value as written
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s -> %s", b.Page, b.Target)
}

// linkAttributes maps element tags to the attribute that carries a reference.
var linkAttributes = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
}

// CheckOutput parses every .html file under root and returns references to
// local files that are missing. External URLs, anchors, and javascript/mailto
// pseudo-links are ignored.
func CheckOutput(root string) ([]BrokenLink, error) {
	var broken []BrokenLink

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		refs, err := extractLocalRefs(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		rel, _ := filepath.Rel(root, path)
		for _, ref := range refs {
			target := filepath.Join(filepath.Dir(path), filepath.FromSlash(ref))
			if _, statErr := os.Stat(target); statErr != nil {
				broken = append(broken, BrokenLink{Page: rel, Target: ref})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return broken, nil
}

// extractLocalRefs returns the local (relative) href/src values of one page.
func extractLocalRefs(htmlPath string) ([]string, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return localRefsFromReader(file)
}

func localRefsFromReader(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttributes[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && isLocalRef(a.Val) {
						refs = append(refs, stripFragment(a.Val))
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func isLocalRef(val string) bool {
	if val == "" || strings.HasPrefix(val, "#") {
		return false
	}
	u, err := url.Parse(val)
	if err != nil {
		return false
	}
	if u.Scheme != "" || u.Host != "" {
		return false
	}
	// Absolute paths are outside the output tree's control.
	return !strings.HasPrefix(u.Path, "/") && u.Path != ""
}

func stripFragment(val string) string {
	if i := strings.IndexAny(val, "#?"); i >= 0 {
		return val[:i]
	}
	return val
}
