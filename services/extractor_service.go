package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github/itish2003/compliance-rag/models"

	"github.com/tmc/langchaingo/textsplitter"
)

const docxMIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Records whose text exceeds this many characters are split before embedding
// so a single oversized guideline document does not dominate retrieval.
const maxRecordChars = 4000

// UnsupportedFileError identifies a source that is not a paragraph-oriented
// office document. It is raised before any extraction is attempted.
type UnsupportedFileError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("file %q must be a document (.docx), got content type %q", e.Name, e.ContentType)
}

// ExtractRecordsFromDir walks dirPath and produces one DocumentRecord per
// .docx file found. Category is the file's parent directory name, name is the
// file name without extension. The walk aborts on the first unreadable or
// malformed document; ingest is idempotent so the operator simply re-runs
// after fixing the bad file.
func ExtractRecordsFromDir(dirPath string) ([]models.DocumentRecord, error) {
	var records []models.DocumentRecord

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".docx") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read %s: %w", path, err)
		}
		text, err := extractDocxText(data)
		if err != nil {
			return fmt.Errorf("could not extract %s: %w", path, err)
		}

		records = append(records, splitRecord(models.DocumentRecord{
			Category: filepath.Base(filepath.Dir(path)),
			Name:     recordName(d.Name()),
			Text:     text,
		})...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("EXTRACTOR: Extracted %d records from %s", len(records), dirPath)
	return records, nil
}

// ExtractRecordFromUpload produces DocumentRecords from an uploaded blob.
// Category is left empty for direct uploads. Non-DOCX uploads are rejected
// with an UnsupportedFileError naming the file and its declared type, before
// any parsing happens.
func ExtractRecordFromUpload(filename, contentType string, data []byte) ([]models.DocumentRecord, error) {
	if contentType != docxMIMEType && !strings.EqualFold(filepath.Ext(filename), ".docx") {
		return nil, &UnsupportedFileError{Name: filename, ContentType: contentType}
	}
	text, err := extractDocxText(data)
	if err != nil {
		return nil, fmt.Errorf("could not extract %s: %w", filename, err)
	}
	return splitRecord(models.DocumentRecord{
		Name: recordName(filename),
		Text: text,
	}), nil
}

// recordName strips the file extension, e.g. "rule1.docx" -> "rule1".
func recordName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// splitRecord breaks an oversized record into chunked records named
// "name#2", "name#3", ... so each embedded text stays within a useful size.
// Records under the threshold pass through untouched.
func splitRecord(record models.DocumentRecord) []models.DocumentRecord {
	if len(record.Text) <= maxRecordChars {
		return []models.DocumentRecord{record}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxRecordChars),
		textsplitter.WithChunkOverlap(200),
	)
	chunks, err := splitter.SplitText(record.Text)
	if err != nil || len(chunks) <= 1 {
		return []models.DocumentRecord{record}
	}

	log.Printf("EXTRACTOR: Split %q into %d chunks.", record.Name, len(chunks))
	out := make([]models.DocumentRecord, 0, len(chunks))
	for i, chunk := range chunks {
		name := record.Name
		if i > 0 {
			name = fmt.Sprintf("%s#%d", record.Name, i+1)
		}
		out = append(out, models.DocumentRecord{
			Category: record.Category,
			Name:     name,
			Text:     chunk,
		})
	}
	return out
}

// docxDocument mirrors the parts of word/document.xml we care about:
// paragraphs containing runs containing text elements.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// extractDocxText pulls paragraph text, in document order, out of a DOCX
// blob. A DOCX file is a ZIP archive whose main text lives in
// word/document.xml.
func extractDocxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a valid docx archive: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("could not open document body: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("could not read document body: %w", err)
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("malformed document body: %w", err)
		}

		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, t := range run.Text {
					sb.WriteString(t.Content)
				}
			}
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("docx archive has no word/document.xml")
}
