package library

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/entities"
)

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:isbn:978-0-15-645380-6</dc:identifier>
    <dc:title>Invisible Cities</dc:title>
    <dc:creator>Italo Calvino</dc:creator>
    <dc:publisher>Harcourt</dc:publisher>
    <dc:date>1972-11-01</dc:date>
    <dc:language>en</dc:language>
    <dc:description>Marco Polo describes cities to Kublai Khan.</dc:description>
  </metadata>
</package>`

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func writeEPUB(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// makeLibrary lays out a small library:
//
//	calvino/invisible-cities.epub  valid epub
//	broken.epub                    not a zip
//	Manual.PDF                     pdf by upper-case extension
//	sub/deep/notes.txt             plain text
//	cover.jpg, readme.md           ignored
func makeLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeEPUB(t, filepath.Join(dir, "calvino", "invisible-cities.epub"), map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
	})
	writeFile(t, filepath.Join(dir, "broken.epub"), "not a zip archive")
	writeFile(t, filepath.Join(dir, "Manual.PDF"), "%PDF-1.4\n%%EOF\n")
	writeFile(t, filepath.Join(dir, "sub", "deep", "notes.txt"), "plain text notes")
	writeFile(t, filepath.Join(dir, "cover.jpg"), "jpeg")
	writeFile(t, filepath.Join(dir, "readme.md"), "# readme")
	return dir
}

func TestScanner_Scan(t *testing.T) {
	dir := makeLibrary(t)
	scanner := NewScanner()

	files, err := scanner.Scan(context.Background(), dir)
	require.NoError(t, err)

	byRel := map[string]BookFile{}
	for _, f := range files {
		byRel[f.RelPath] = f
	}
	require.Len(t, byRel, 4)

	epub := byRel["calvino/invisible-cities.epub"]
	assert.Equal(t, "epub", epub.Format)
	assert.Equal(t, "application/epub+zip", epub.MIME)
	assert.Equal(t, "Invisible Cities", epub.Metadata.Title)
	assert.Equal(t, "Italo Calvino", epub.Metadata.Author)
	assert.Equal(t, "Harcourt", epub.Metadata.Publisher)
	assert.Equal(t, "1972-11-01", epub.Metadata.Date)
	assert.Equal(t, "en", epub.Metadata.Language)
	assert.Equal(t, "9780156453806", epub.Metadata.ISBN)
	assert.True(t, filepath.IsAbs(epub.Path))

	pdf := byRel["Manual.PDF"]
	assert.Equal(t, "pdf", pdf.Format)
	assert.Equal(t, "application/pdf", pdf.MIME)
	assert.Equal(t, "Manual", pdf.Metadata.Title)

	assert.Equal(t, "notes", byRel["sub/deep/notes.txt"].Metadata.Title)
	assert.Empty(t, byRel["broken.epub"].Metadata.Title)
}

func TestScanner_ScanErrors(t *testing.T) {
	scanner := NewScanner()

	_, err := scanner.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "book.txt")
	writeFile(t, file, "x")
	_, err = scanner.Scan(context.Background(), file)
	assert.True(t, errors.Is(err, ErrNotDirectory))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = scanner.Scan(ctx, makeLibrary(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_IsBookFile(t *testing.T) {
	scanner := NewScanner()
	for name, want := range map[string]bool{
		"a.epub": true, "b.MOBI": true, "c.Pdf": true, "d.docx": true, "e.txt": true,
		"f.doc": false, "g": false, "h.epub.bak": false, "epub": false,
	} {
		assert.Equal(t, want, scanner.IsBookFile(name), name)
	}
}

func TestReadEPUBMetadata_WithoutContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.epub")
	writeEPUB(t, path, map[string]string{
		"content.opf": `<package><metadata>
			<title>  </title><title>Second Title</title>
			<identifier>urn:uuid:1b4e28ba-2fa1-11d2-883f-0016d3cca427</identifier>
			<source>ISBN 0-441-01359-7</source>
		</metadata></package>`,
	})

	md, err := ReadEPUBMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "Second Title", md.Title)
	assert.Equal(t, "0441013597", md.ISBN)
	assert.Empty(t, md.Author)
}

func TestReadEPUBMetadata_NoPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.epub")
	writeEPUB(t, path, map[string]string{"chapter1.xhtml": "<html/>"})

	_, err := ReadEPUBMetadata(path)
	assert.Error(t, err)
}

// testdata/solaris.pdf carries a document information dictionary with a
// UTF-16 author and a Producer made of control characters.
const solarisPDF = "testdata/solaris.pdf"

func copyFixture(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	writeFile(t, dst, string(data))
}

func TestReadPDFMetadata(t *testing.T) {
	md, err := ReadPDFMetadata(solarisPDF)
	require.NoError(t, err)

	assert.Equal(t, "Solaris", md.Title)
	assert.Equal(t, "Stanisław Lem", md.Author)
	assert.Equal(t, "A sentient ocean", md.Subject)
	assert.Equal(t, "Writer", md.Creator)
	assert.Empty(t, md.Producer, "control characters are not printable")
	assert.Equal(t, "D:19610101000000Z", md.Date)
}

func TestReadPDFMetadata_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	writeFile(t, path, "%PDF-1.4\n%%EOF\n")

	_, err := ReadPDFMetadata(path)
	assert.Error(t, err)
}

func TestScanner_ScanPDF(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, solarisPDF, filepath.Join(dir, "lem", "solaris-1961.pdf"))

	files, err := NewScanner().Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, "pdf", f.Format)
	assert.Equal(t, "Solaris", f.Metadata.Title, "the info title wins over the file name")

	input, ok := f.Input()
	require.True(t, ok)
	assert.Equal(t, "Stanisław Lem", *input.Author)
	require.NotNil(t, input.PublicationYear)
	assert.Equal(t, 1961, *input.PublicationYear)
	assert.Equal(t, "lem/solaris-1961.pdf", *input.Filepath)
}

func TestIsPrintableText(t *testing.T) {
	for s, want := range map[string]bool{
		"Solaris":        true,
		"line\none\ttab": true,
		"Łódź":           true,
		"":               false,
		"\x01\x02bad":    false,
		"del\x7f":        false,
		"c1\u0085":       false,
		"bad\xff":        false,
		"\ufffd":         false,
	} {
		assert.Equal(t, want, isPrintableText(s), "%q", s)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input string
		want  int // 0 means no year
	}{
		{"1972-11-01", 1972},
		{"2006", 2006},
		{"1066 and all that", 1066},
		{"0999-01-01", 0},
		{"D:20210304120000Z", 2021},
		{"Published in 1999", 1999},
		{"circa 1700", 0},
		{"2101", 0},
		{"", 0},
		{"abc", 0},
		{"Jan 5, 1855", 1855},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseYear(tt.input)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExtractISBN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"urn:isbn:9780156453806", "9780156453806"},
		{"isbn:0-441-01359-7", "0441013597"},
		{"ISBN: 978 0 441 01359 3", "9780441013593"},
		{"ISBN 080442957X", "080442957X"},
		{"9780156453806", "9780156453806"},
		{"12345", ""},
		{"urn:uuid:1b4e28ba-2fa1-11d2-883f-0016d3cca427", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractISBN(tt.input))
		})
	}
}

func TestScanner_Save(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := books.NewRepository(db.DB)

	dir := makeLibrary(t)
	scanner := NewScanner()
	files, err := scanner.Scan(context.Background(), dir)
	require.NoError(t, err)

	result := scanner.Save(context.Background(), repo, files)
	assert.Equal(t, ScanResult{Found: 4, Saved: 3, Created: 3, Skipped: 1}, result)

	book, err := repo.FindByFilepath("calvino/invisible-cities.epub")
	require.NoError(t, err)
	assert.Equal(t, "Invisible Cities", book.Title)
	assert.Equal(t, "Italo Calvino", *book.Author)
	assert.Equal(t, 1972, *book.PublicationYear)

	t.Run("rescan updates in place", func(t *testing.T) {
		result := scanner.Save(context.Background(), repo, files)
		assert.Equal(t, ScanResult{Found: 4, Saved: 3, Skipped: 1}, result)

		count, err := repo.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

type failingStore struct{}

func (failingStore) UpsertByFilepath(books.BookInput) (*entities.Book, bool, error) {
	return nil, false, errors.New("disk full")
}

func TestScanner_SaveCountsErrors(t *testing.T) {
	files := []BookFile{
		{RelPath: "a.txt", Metadata: Metadata{Title: "A"}},
		{RelPath: "b.txt", Metadata: Metadata{Title: " "}},
	}

	result := NewScanner().Save(context.Background(), failingStore{}, files)
	assert.Equal(t, ScanResult{Found: 2, Errors: 1, Skipped: 1}, result)
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()

	full, err := ResolvePath(root, "calvino/invisible-cities.epub")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "calvino", "invisible-cities.epub"), full)

	for _, rel := range []string{"", "../secret.txt", "a/../../secret.txt", "/etc/passwd", ".."} {
		_, err := ResolvePath(root, rel)
		assert.ErrorIs(t, err, ErrOutsideLibrary, rel)
	}
}

func TestContentType(t *testing.T) {
	dir := t.TempDir()
	for name, want := range map[string]string{
		"a.pdf":  "application/pdf",
		"b.EPUB": "application/epub+zip",
		"c.mobi": "application/x-mobipocket-ebook",
		"d.txt":  "text/plain",
		"e.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	} {
		assert.Equal(t, want, ContentType(filepath.Join(dir, name)), name)
	}

	png := filepath.Join(dir, "image.bin")
	writeFile(t, png, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", ContentType(png))

	assert.Equal(t, "application/octet-stream", ContentType(filepath.Join(dir, "missing.bin")))
}
