package epub_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/MarwanElKhodary/ArabicToMP3/internal/epub"
)

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const bookOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="3.0">
  <metadata>
    <dc:title>كتاب عربي رائع!</dc:title>
  </metadata>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="empty" href="empty.xhtml" media-type="application/xhtml+xml"/>
    <item id="ghost" href="missing.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch2"/>
    <itemref idref="ch1"/>
    <itemref idref="empty"/>
    <itemref idref="ghost"/>
  </spine>
</package>`

const chapterOne = `<html><head><style>p { color: red; }</style></head>
<body><p>الفصل   الأول.</p>
<script>var skipped = true;</script>
<p>قال ﻻ.</p></body></html>`

const chapterTwo = `<html><body><p>مقدمة الكتاب.</p></body></html>`

const emptyChapter = `<html><body><div>   </div></body></html>`

func writeTestEPUB(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
}

func newTestBook(t *testing.T) *epub.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	writeTestEPUB(t, path, map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf":      bookOPF,
		"OEBPS/ch1.xhtml":        chapterOne,
		"OEBPS/ch2.xhtml":        chapterTwo,
		"OEBPS/empty.xhtml":      emptyChapter,
	})
	r, err := epub.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	return r
}

func TestGetChapters(t *testing.T) {
	r := newTestBook(t)

	chapters, err := r.GetChapters()
	if err != nil {
		t.Fatalf("GetChapters() error = %v", err)
	}

	// Spine order rules: ch2 comes first. The blank chapter and the one
	// whose file is missing from the archive are both dropped.
	if len(chapters) != 2 {
		t.Fatalf("GetChapters() returned %d chapters, want 2", len(chapters))
	}

	if chapters[0].ID != "ch2" || chapters[1].ID != "ch1" {
		t.Errorf("chapter order = [%s, %s], want [ch2, ch1]", chapters[0].ID, chapters[1].ID)
	}

	if chapters[0].Content != "مقدمة الكتاب." {
		t.Errorf("chapters[0].Content = %q, want %q", chapters[0].Content, "مقدمة الكتاب.")
	}

	// Script and style text must not leak into the chapter, runs of
	// whitespace collapse to single spaces, and the lam-alef ligature is
	// normalized to its two-letter form.
	want := "الفصل الأول. قال لا."
	if chapters[1].Content != want {
		t.Errorf("chapters[1].Content = %q, want %q", chapters[1].Content, want)
	}
}

func TestTitle(t *testing.T) {
	r := newTestBook(t)

	title, err := r.Title()
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if title != "كتاب عربي رائع!" {
		t.Errorf("Title() = %q, want %q", title, "كتاب عربي رائع!")
	}
}

func TestBookName(t *testing.T) {
	r := newTestBook(t)

	if got := r.BookName(); got != "كتاب_عربي_رائع" {
		t.Errorf("BookName() = %q, want %q", got, "كتاب_عربي_رائع")
	}
}

func TestBookNameFallsBackToFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my_book.epub")
	writeTestEPUB(t, path, map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata></metadata>
  <manifest></manifest>
  <spine></spine>
</package>`,
	})

	r, err := epub.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if got := r.BookName(); got != "my_book" {
		t.Errorf("BookName() = %q, want %q", got, "my_book")
	}
}

func TestGetChaptersInvalidEPUB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.epub")
	writeTestEPUB(t, path, map[string]string{
		"mimetype": "application/epub+zip",
	})

	r, err := epub.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := r.GetChapters(); err == nil {
		t.Error("GetChapters() expected error for epub without container.xml")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"arabic with punctuation", "كتاب عربي رائع!", "كتاب_عربي_رائع"},
		{"latin with colon", "My Book: Part 2", "My_Book_Part_2"},
		{"hyphens and spaces collapse", "one - two  three", "one_two_three"},
		{"only symbols", "!?*", ""},
		{"underscores kept", "already_safe", "already_safe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := epub.SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
