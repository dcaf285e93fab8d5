package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/aleister1102/docpipe/internal/common"
)

// ExtractText returns the plain text of a document file. The format is picked
// by extension: .docx is read as OOXML, .txt is read verbatim, and legacy .doc
// files get a best-effort scan that also copes with HTML or RTF content hiding
// behind the extension.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return extractDocxText(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".doc":
		return extractDocText(path)
	default:
		return "", common.WrapErrorf(common.ErrInvalidInput, "unsupported document format '%s'", filepath.Ext(path))
	}
}

// extractDocxText reads word/document.xml out of the OOXML container and
// collects paragraph text, one line per paragraph.
func extractDocxText(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", common.WrapErrorf(err, "failed to open '%s' as OOXML container", filepath.Base(path))
	}
	defer reader.Close()

	var docXML io.ReadCloser
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", common.WrapError(err, "failed to open document body")
			}
			break
		}
	}
	if docXML == nil {
		return "", common.WrapError(common.ErrInvalidInput, "container has no document body")
	}
	defer docXML.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(docXML)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", common.WrapError(err, "malformed document body")
		}

		switch tok := token.(type) {
		case xml.CharData:
			sb.Write(tok)
		case xml.EndElement:
			// Paragraph and tab boundaries become plain separators.
			switch tok.Name.Local {
			case "p":
				sb.WriteByte('\n')
			case "tab":
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String(), nil
}

// extractDocText handles legacy .doc files. Real-world inputs include HTML and
// RTF saved with a .doc extension; genuine binary .doc files get a printable
// text scan, which is enough for the label:value fields the parser needs.
func extractDocText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	lowerHead := bytes.ToLower(head)

	switch {
	case bytes.Contains(lowerHead, []byte("<html")) || bytes.Contains(lowerHead, []byte("<!doctype")):
		return stripHTML(string(data)), nil
	case bytes.Contains(head, []byte(`{\rtf`)):
		return stripRTF(string(data)), nil
	default:
		return printableRuns(data), nil
	}
}

var (
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
	rtfControlWords = regexp.MustCompile(`\\[a-z]+-?\d*\s?`)
)

func stripHTML(content string) string {
	text := htmlTagPattern.ReplaceAllString(content, " ")
	replacer := strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(replacer.Replace(text), " "))
}

func stripRTF(content string) string {
	text := rtfControlWords.ReplaceAllString(content, " ")
	text = strings.NewReplacer("{", " ", "}", " ").Replace(text)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// printableRuns keeps runs of printable characters long enough to be words,
// discarding the binary structure around them.
func printableRuns(data []byte) string {
	var sb strings.Builder
	var run []rune
	flush := func() {
		if len(run) >= 3 {
			sb.WriteString(string(run))
			sb.WriteByte('\n')
		}
		run = run[:0]
	}

	for _, b := range data {
		r := rune(b)
		if r == '\t' {
			r = ' '
		}
		if unicode.IsPrint(r) && r < unicode.MaxASCII {
			run = append(run, r)
		} else {
			flush()
		}
	}
	flush()
	return sb.String()
}
