package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
)

// maxArchiveMemberBytes bounds how much of any one archive member's content is
// read into the rendered output, so a single huge member can't blow up memory
// for what is meant to be a metadata-and-preview extractor, not a full archive
// unpacker.
const maxArchiveMemberBytes = 1 << 20 // 1 MiB

// ArchiveExtractor handles ZIP archives: it records the member list under
// metadata.archive and concatenates the textual content of UTF-8-plausible,
// reasonably small members.
type ArchiveExtractor struct{}

// NewArchiveExtractor builds the bundled ZIP extractor.
func NewArchiveExtractor() *ArchiveExtractor {
	return &ArchiveExtractor{}
}

func (e *ArchiveExtractor) Name() string { return "archive" }
func (e *ArchiveExtractor) Priority() int { return 0 }

func (e *ArchiveExtractor) SupportedMimeTypes() []string {
	return []string{"application/zip"}
}

func (e *ArchiveExtractor) Initialize(ctx context.Context) error { return nil }
func (e *ArchiveExtractor) Shutdown(ctx context.Context) error { return nil }

func (e *ArchiveExtractor) ExtractFile(ctx context.Context, path, mimeType string, config extract.Config) (*extract.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorkind.NewIO("failed to read file for archive extraction", err)
	}
	return e.ExtractBytes(ctx, data, mimeType, config)
}

func (e *ArchiveExtractor) ExtractBytes(ctx context.Context, buf []byte, mimeType string, config extract.Config) (*extract.Output, error) {
	reader, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, errorkind.NewParsing("failed to open zip archive", err)
	}

	fileList := make([]string, 0, len(reader.File))
	var content strings.Builder
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		fileList = append(fileList, f.Name)

		if f.UncompressedSize64 > maxArchiveMemberBytes {
			continue
		}
		text, readErr := readZipMemberText(f)
		if readErr != nil {
			continue
		}
		if text == "" {
			continue
		}
		content.WriteString("--- " + f.Name + " ---\n")
		content.WriteString(text)
		content.WriteString("\n\n")
	}
	sort.Strings(fileList)

	metadata := map[string]interface{}{
		"mime_type": mimeType,
		"archive": ArchiveMetadataMap("ZIP", len(fileList), fileList),
	}

	return &extract.Output{
		Content:  strings.TrimSpace(content.String()),
		Metadata: metadata,
	}, nil
}

// ArchiveMetadataMap builds the metadata.archive map in the JSON-shaped form
// result metadata carries.
func ArchiveMetadataMap(format string, fileCount int, fileList []string) map[string]interface{} {
	return map[string]interface{}{
		"format":     format,
		"file_count": fileCount,
		"file_list":  fileList,
	}
}

func readZipMemberText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxArchiveMemberBytes))
	if err != nil {
		return "", err
	}
	if !isPlausiblyText(data) {
		return "", nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// isPlausiblyText rejects binary blobs (NUL bytes) so archive content
// rendering doesn't dump raw binary into the extracted text.
func isPlausiblyText(data []byte) bool {
	return !bytes.ContainsRune(data, 0)
}
