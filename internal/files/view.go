package files

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "it-inventory/internal/errors"
)

// ViewKind tells the HTTP layer how to present a file.
type ViewKind int

const (
	// ViewText carries the content in View.Text, served as text/plain.
	ViewText ViewKind = iota
	// ViewInline means the file at View.Path is served as-is for the browser to display.
	ViewInline
)

type View struct {
	Kind ViewKind
	Path string
	Text string
}

var (
	textExtensions   = map[string]bool{".txt": true, ".html": true, ".css": true, ".js": true, ".py": true, ".go": true, ".md": true, ".csv": true}
	inlineExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".pdf": true}
)

// View prepares a file for display in the browser. Types that cannot be shown are
// UNSUPPORTED_MEDIA_TYPE.
func (e *Explorer) View(rel string) (View, error) {
	abs, err := e.OpenFile(rel)
	if err != nil {
		return View{}, err
	}

	ext := strings.ToLower(filepath.Ext(abs))
	switch {
	case textExtensions[ext]:
		b, err := os.ReadFile(abs)
		if err != nil {
			return View{}, apperrors.Wrap(apperrors.ErrInternal, "read file", err)
		}
		return View{Kind: ViewText, Path: abs, Text: string(b)}, nil
	case inlineExtensions[ext]:
		return View{Kind: ViewInline, Path: abs}, nil
	case ext == ".docx":
		text, err := docxText(abs)
		if err != nil {
			return View{}, apperrors.Wrap(apperrors.ErrInternal, "read document", err)
		}
		return View{Kind: ViewText, Path: abs, Text: text}, nil
	}
	return View{}, apperrors.New(apperrors.ErrUnsupported, "unsupported file type")
}

// docxText returns the paragraph text of a Word document, one paragraph per line.
func docxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return paragraphs(rc)
	}
	return "", fmt.Errorf("%s: no word/document.xml", filepath.Base(path))
}

func paragraphs(r io.Reader) (string, error) {
	const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	dec := xml.NewDecoder(r)
	var (
		out    []string
		cur    strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				cur.Reset()
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if inPara {
					out = append(out, cur.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return strings.Join(out, "\n"), nil
}
