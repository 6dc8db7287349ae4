package library

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage holds the Dublin Core fields of an OPF package document.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Title       []string `xml:"title"`
		Creator     []string `xml:"creator"`
		Publisher   string   `xml:"publisher"`
		Date        []string `xml:"date"`
		Language    string   `xml:"language"`
		Description string   `xml:"description"`
		Identifier  []string `xml:"identifier"`
		Source      []string `xml:"source"`
	} `xml:"metadata"`
}

// ReadEPUBMetadata reads the package document of the EPUB at filename.
func ReadEPUBMetadata(filename string) (*Metadata, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer zr.Close()

	opfPath, err := findOPF(&zr.Reader)
	if err != nil {
		return nil, err
	}

	b, err := readZipFile(&zr.Reader, opfPath)
	if err != nil {
		return nil, err
	}
	return parseOPF(b)
}

// findOPF resolves the package document through META-INF/container.xml and
// falls back to the first .opf entry for archives without one.
func findOPF(zr *zip.Reader) (string, error) {
	if b, err := readZipFile(zr, "META-INF/container.xml"); err == nil {
		var c container
		if err := xml.Unmarshal(b, &c); err != nil {
			return "", errors.Wrap(err, "parse container.xml")
		}
		for _, rf := range c.Rootfiles {
			if rf.FullPath != "" {
				return rf.FullPath, nil
			}
		}
	}

	for _, f := range zr.File {
		if strings.EqualFold(path.Ext(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", errors.New("no opf file found")
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer r.Close()
		b, err := io.ReadAll(r)
		return b, errors.WithStack(err)
	}
	return nil, errors.Errorf("%s not found in archive", name)
}

func parseOPF(b []byte) (*Metadata, error) {
	pkg := &opfPackage{}
	if err := xml.Unmarshal(b, pkg); err != nil {
		return nil, errors.Wrap(err, "parse opf")
	}
	md := pkg.Metadata

	m := &Metadata{
		Title:       first(md.Title),
		Author:      first(md.Creator),
		Publisher:   strings.TrimSpace(md.Publisher),
		Date:        first(md.Date),
		Language:    strings.TrimSpace(md.Language),
		Description: strings.TrimSpace(md.Description),
	}
	for _, id := range append(md.Identifier, md.Source...) {
		if isbn := ExtractISBN(id); isbn != "" {
			m.ISBN = isbn
			break
		}
	}
	return m, nil
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
