package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Chapter is one spine document with its text extracted.
type Chapter struct {
	ID      string
	Title   string
	Content string
}

// Reader extracts chapters and metadata from an EPUB file.
type Reader struct {
	path string
}

// XML structs for parsing
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type opfPackage struct {
	Metadata struct {
		Title string `xml:"title"`
	} `xml:"metadata"`
	Manifest struct {
		Item []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRef []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

func NewReader(path string) (*Reader, error) {
	return &Reader{path: path}, nil
}

// GetChapters returns the book's chapters in spine order. Documents without
// any text are dropped.
func (r *Reader) GetChapters() ([]Chapter, error) {
	z, err := zip.OpenReader(r.path)
	if err != nil {
		return nil, err
	}
	defer z.Close()

	pkg, opfPath, err := loadPackage(z)
	if err != nil {
		return nil, err
	}

	// Manifest items are referenced by ID from the spine.
	manifestMap := make(map[string]string)
	for _, item := range pkg.Manifest.Item {
		manifestMap[item.ID] = item.Href
	}

	var chapters []Chapter
	opfDir := filepath.Dir(opfPath) // hrefs in the OPF are relative to its location

	count := 1
	for _, itemRef := range pkg.Spine.ItemRef {
		href, ok := manifestMap[itemRef.IDRef]
		if !ok {
			continue
		}

		fullPath := href
		if opfDir != "." {
			// Zip entries use forward slashes regardless of platform.
			fullPath = filepath.ToSlash(filepath.Join(opfDir, href))
		}

		f, err := findFileInZip(z, fullPath)
		if err != nil {
			log.Printf("[EPUB] Warning: missing file %s", fullPath)
			continue
		}

		content, err := extractText(f)
		if err != nil {
			continue
		}
		if content == "" {
			continue
		}

		title := href
		if title == "" {
			title = fmt.Sprintf("Chapter %d", count)
		}
		chapters = append(chapters, Chapter{
			ID:      itemRef.IDRef,
			Title:   title,
			Content: content,
		})
		count++
	}

	return chapters, nil
}

// Title returns the book title from the package metadata.
func (r *Reader) Title() (string, error) {
	z, err := zip.OpenReader(r.path)
	if err != nil {
		return "", err
	}
	defer z.Close()

	pkg, _, err := loadPackage(z)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.Metadata.Title), nil
}

// BookName derives a filesystem-safe name for output files from the book
// title, falling back to the EPUB filename when no usable title is present.
func (r *Reader) BookName() string {
	title, err := r.Title()
	if err == nil {
		if safe := SanitizeName(title); safe != "" {
			return safe
		}
	}

	base := filepath.Base(r.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)
	separators  = regexp.MustCompile(`[-\s]+`)
)

// SanitizeName strips characters that are unsafe in filenames and collapses
// spaces and hyphens into underscores. Arabic letters survive intact.
func SanitizeName(name string) string {
	safe := strings.TrimSpace(unsafeChars.ReplaceAllString(name, ""))
	return separators.ReplaceAllString(safe, "_")
}

// loadPackage locates the OPF via META-INF/container.xml and decodes it.
func loadPackage(z *zip.ReadCloser) (*opfPackage, string, error) {
	containerFile, err := findFileInZip(z, "META-INF/container.xml")
	if err != nil {
		return nil, "", fmt.Errorf("invalid epub: no container.xml")
	}

	var c container
	if err := decodeXML(containerFile, &c); err != nil {
		return nil, "", fmt.Errorf("failed to parse container.xml: %v", err)
	}
	if len(c.Rootfiles.Rootfile) == 0 {
		return nil, "", fmt.Errorf("invalid epub: no rootfile found")
	}

	opfPath := c.Rootfiles.Rootfile[0].FullPath
	opfFile, err := findFileInZip(z, opfPath)
	if err != nil {
		return nil, "", fmt.Errorf("opf file not found: %s", opfPath)
	}

	var pkg opfPackage
	if err := decodeXML(opfFile, &pkg); err != nil {
		return nil, "", fmt.Errorf("failed to parse opf: %v", err)
	}
	return &pkg, opfPath, nil
}

func findFileInZip(z *zip.ReadCloser, name string) (*zip.File, error) {
	for _, f := range z.File {
		if f.Name == name || f.Name == strings.ReplaceAll(name, "\\", "/") {
			return f, nil
		}
	}
	return nil, fmt.Errorf("file not found")
}

func decodeXML(f *zip.File, target interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(target)
}

// extractText renders a chapter document as plain text: script and style
// subtrees are skipped, whitespace is collapsed to single spaces, and the
// result is NFKC-normalized so Arabic presentation forms become standard
// letters the synthesis services handle well.
func extractText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	doc, err := html.Parse(rc)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
	}
	walker(doc)

	collapsed := strings.Join(strings.Fields(sb.String()), " ")
	return norm.NFKC.String(collapsed), nil
}
