package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/archivist-labs/docchat-core/internal/core/domain"
)

// extractDocx reads word/document.xml out of the docx archive and
// flattens it to text, one line per paragraph.
func extractDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening docx: %v", domain.ErrExtractionFailed, err)
	}
	defer archive.Close()

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("%w: docx has no word/document.xml", domain.ErrExtractionFailed)
	}

	reader, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("%w: opening document.xml: %v", domain.ErrExtractionFailed, err)
	}
	defer reader.Close()

	text, err := flattenDocumentXML(reader)
	if err != nil {
		return "", fmt.Errorf("%w: parsing document.xml: %v", domain.ErrExtractionFailed, err)
	}
	return text, nil
}

// flattenDocumentXML walks the WordprocessingML token stream, keeping
// the character data inside text runs and inserting a newline at each
// paragraph end.
func flattenDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
