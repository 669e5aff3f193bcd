package convert

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MarwanElKhodary/ArabicToMP3/internal/audio"
	"github.com/MarwanElKhodary/ArabicToMP3/internal/epub"
	"github.com/MarwanElKhodary/ArabicToMP3/internal/segment"
)

// ChapterSource yields a book's chapters in reading order.
type ChapterSource interface {
	GetChapters() ([]epub.Chapter, error)
}

// SpeechWriter turns one text chunk into an audio file on disk.
type SpeechWriter interface {
	SynthesizeToFile(ctx context.Context, text, path string) error
}

// Options configure a Converter. Zero values fall back to sensible defaults.
type Options struct {
	OutputDir  string
	BookName   string
	ChunkSize  int
	FileExt    string // mp3 or wav, decided by the backend's output format
	MergeParts bool
}

// Pacing delays between synthesis calls.
const (
	chunkDelay   = 1 * time.Second
	chapterDelay = 3 * time.Second
)

// Converter runs the book-to-audio pipeline: read chapters, split their text
// into synthesizable chunks, and write one audio file per chunk.
type Converter struct {
	source ChapterSource
	writer SpeechWriter
	opts   Options

	sleep func(ctx context.Context, d time.Duration) error
}

func New(source ChapterSource, writer SpeechWriter, opts Options) *Converter {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.BookName == "" {
		opts.BookName = "book"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = segment.DefaultChunkSize
	}
	if opts.FileExt == "" {
		opts.FileExt = "mp3"
	}
	return &Converter{
		source: source,
		writer: writer,
		opts:   opts,
		sleep:  sleepContext,
	}
}

// ConvertChapter synthesizes one chapter (0-based index) into per-chunk audio
// files and returns the paths written. A missing chapter is reported in the
// log, not as an error.
func (c *Converter) ConvertChapter(ctx context.Context, index int) ([]string, error) {
	chapters, err := c.source.GetChapters()
	if err != nil {
		return nil, fmt.Errorf("failed to read chapters: %v", err)
	}
	return c.convertChapter(ctx, chapters, index)
}

// ConvertAllChapters converts every chapter in reading order, pausing between
// chapters, and returns the paths of all files written.
func (c *Converter) ConvertAllChapters(ctx context.Context) ([]string, error) {
	chapters, err := c.source.GetChapters()
	if err != nil {
		return nil, fmt.Errorf("failed to read chapters: %v", err)
	}
	if len(chapters) == 0 {
		log.Printf("[Convert] No chapters found in the EPUB file")
		return nil, nil
	}

	log.Printf("[Convert] Converting all %d chapters...", len(chapters))

	var files []string
	for i := range chapters {
		chapterFiles, err := c.convertChapter(ctx, chapters, i)
		files = append(files, chapterFiles...)
		if err != nil {
			return files, err
		}
		if i < len(chapters)-1 {
			if err := c.sleep(ctx, chapterDelay); err != nil {
				return files, err
			}
		}
	}
	return files, nil
}

// ConvertBook joins every chapter's text into one stream and converts it as a
// single sequence of chunks, so part numbering runs across chapter breaks.
func (c *Converter) ConvertBook(ctx context.Context) ([]string, error) {
	chapters, err := c.source.GetChapters()
	if err != nil {
		return nil, fmt.Errorf("failed to read chapters: %v", err)
	}
	if len(chapters) == 0 {
		log.Printf("[Convert] No chapters found in the EPUB file")
		return nil, nil
	}

	var sb strings.Builder
	for _, ch := range chapters {
		sb.WriteString(ch.Content)
		sb.WriteString("\n\n")
	}

	chunks := segment.Split(sb.String(), c.opts.ChunkSize)
	log.Printf("[Convert] Converting the whole book (%d chapters, %d chunks)...", len(chapters), len(chunks))

	files, err := c.convertChunks(ctx, chunks, func(i int) string {
		return fmt.Sprintf("%s_Part%03d.%s", c.opts.BookName, i+1, c.opts.FileExt)
	})
	if err != nil {
		return files, err
	}

	c.mergeParts(files, fmt.Sprintf("%s.%s", c.opts.BookName, c.opts.FileExt))
	return files, nil
}

// ListChapters prints an indexed overview of the chapters with the number of
// chunks each would produce at the configured chunk size.
func (c *Converter) ListChapters(w io.Writer) error {
	chapters, err := c.source.GetChapters()
	if err != nil {
		return fmt.Errorf("failed to read chapters: %v", err)
	}
	if len(chapters) == 0 {
		fmt.Fprintln(w, "No chapters found in the EPUB file.")
		return nil
	}

	fmt.Fprintf(w, "Found %d chapters:\n", len(chapters))
	total := 0
	for i, ch := range chapters {
		chunks := segment.Split(ch.Content, c.opts.ChunkSize)
		total += len(chunks)
		fmt.Fprintf(w, "  [%d] %s (%d characters, %d chunk(s))\n",
			i, ch.Title, utf8.RuneCountInString(ch.Content), len(chunks))
	}
	fmt.Fprintf(w, "Total: %d chunk(s) at %d characters per chunk\n", total, c.opts.ChunkSize)
	return nil
}

// TestSynthesis converts a short fixed phrase so a user can verify the
// configured backend and credentials before committing to a whole book.
func (c *Converter) TestSynthesis(ctx context.Context) (string, error) {
	const phrase = "مرحبا بكم في اختبار التحويل من النص إلى الكلام"

	path := filepath.Join(c.opts.OutputDir, "test_arabic_tts."+c.opts.FileExt)
	log.Printf("[Convert] Running synthesis self-test...")
	if err := c.writer.SynthesizeToFile(ctx, phrase, path); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Converter) convertChapter(ctx context.Context, chapters []epub.Chapter, index int) ([]string, error) {
	if len(chapters) == 0 {
		log.Printf("[Convert] No chapters found in the EPUB file")
		return nil, nil
	}
	if index < 0 || index >= len(chapters) {
		log.Printf("[Convert] Chapter index %d not found. Available chapters: 0-%d", index, len(chapters)-1)
		return nil, nil
	}

	chapter := chapters[index]
	chunks := segment.Split(chapter.Content, c.opts.ChunkSize)
	log.Printf("[Convert] Chapter %d/%d (%s): %d chunks", index+1, len(chapters), chapter.Title, len(chunks))

	files, err := c.convertChunks(ctx, chunks, func(i int) string {
		return fmt.Sprintf("%s_Ch%02d_Part%02d.%s", c.opts.BookName, index+1, i+1, c.opts.FileExt)
	})
	if err != nil {
		return files, err
	}

	c.mergeParts(files, fmt.Sprintf("%s_Ch%02d.%s", c.opts.BookName, index+1, c.opts.FileExt))
	return files, nil
}

// convertChunks synthesizes each chunk to its own file. A failed chunk is
// logged and skipped so the rest of the batch still converts; only
// cancellation stops the loop early.
func (c *Converter) convertChunks(ctx context.Context, chunks []string, nameFor func(i int) string) ([]string, error) {
	var files []string
	for i, chunk := range chunks {
		name := nameFor(i)
		path := filepath.Join(c.opts.OutputDir, name)

		log.Printf("[Convert] Chunk %d/%d -> %s", i+1, len(chunks), name)
		if err := c.writer.SynthesizeToFile(ctx, chunk, path); err != nil {
			if ctx.Err() != nil {
				return files, ctx.Err()
			}
			log.Printf("[Convert] Skipping chunk %d after failed synthesis: %v", i+1, err)
		} else {
			files = append(files, path)
		}

		if err := c.sleep(ctx, chunkDelay); err != nil {
			return files, err
		}
	}
	return files, nil
}

// mergeParts stitches part files into a single output when merging is on.
// The parts stay on disk either way; they are the primary output.
func (c *Converter) mergeParts(parts []string, name string) {
	if !c.opts.MergeParts || len(parts) < 2 {
		return
	}

	target := filepath.Join(c.opts.OutputDir, name)
	if err := audio.MergeFiles(parts, target); err != nil {
		log.Printf("[Convert] Warning: failed to merge parts into %s: %v", name, err)
		return
	}
	log.Printf("[Convert] Merged %d parts into %s", len(parts), name)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
