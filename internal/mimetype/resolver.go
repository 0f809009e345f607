// Package mimetype resolves a validated MIME type for a path and/or an explicit
// hint, without ever reading more than the first few bytes of a file.
package mimetype

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

// sniffLen is the number of leading bytes read for magic-number sniffing. Every
// signature below fits comfortably inside it.
const sniffLen = 16

// byExtension is a closed table of extension → canonical MIME type. Extensions are
// matched case-insensitively and include the leading dot.
var byExtension = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "application/xml",
	".json": "application/json",
	".rtf":  "application/rtf",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".zip":  "application/zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".doc":  "application/msword",
	".xls":  "application/vnd.ms-excel",
	".ppt":  "application/vnd.ms-powerpoint",
	".7z":   "application/x-7z-compressed",
	".eml":  "message/rfc822",
}

type signature struct {
	magic    []byte
	offset   int
	mimeType string
}

// signatures is checked in order; the first match wins. OOXML formats (docx/xlsx/
// pptx) and plain zip share the same PK signature and are disambiguated by
// extension only — sniffing cannot tell them apart without unzipping, which the
// resolver is not allowed to do.
var signatures = []signature{
	{[]byte("PK\x03\x04"), 0, "application/zip"},
	{[]byte("%PDF-"), 0, "application/pdf"},
	{[]byte("\x89PNG\r\n\x1a\n"), 0, "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, 0, "image/jpeg"},
	{[]byte("II*\x00"), 0, "image/tiff"},
	{[]byte("MM\x00*"), 0, "image/tiff"},
	{[]byte("{\\rtf"), 0, "application/rtf"},
	{[]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, 0, "application/x-ole-storage"},
	{[]byte("7z\xBC\xAF'\x1C"), 0, "application/x-7z-compressed"},
	{[]byte("GIF87a"), 0, "image/gif"},
	{[]byte("GIF89a"), 0, "image/gif"},
	{[]byte("BM"), 0, "image/bmp"},
}

// DetectOrValidate implements the resolver contract: a syntactically valid
// mimeHint always wins, otherwise the path extension is tried, and only then are
// the first sniffLen bytes of the file read for a magic number. It never reads a
// whole file.
func DetectOrValidate(path string, mimeHint string) (string, error) {
	if mimeHint != "" {
		if !isSyntacticallyValid(mimeHint) {
			return "", errorkind.NewValidation("mime_hint is not syntactically valid type/subtype", nil)
		}
		return mimeHint, nil
	}

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if mt, ok := byExtension[ext]; ok {
			return mt, nil
		}
	}

	if path == "" {
		return "", errorkind.NewUnsupportedFormat("")
	}

	mt, err := sniff(path)
	if err != nil {
		return "", err
	}
	if mt == "" {
		return "", errorkind.NewUnsupportedFormat(filepath.Ext(path))
	}
	return mt, nil
}

// DetectOrValidateBytes mirrors DetectOrValidate for in-memory content: the hint
// still wins, and a nameHint (if given) is tried against the extension table
// before the magic bytes of buf are sniffed directly.
func DetectOrValidateBytes(buf []byte, nameHint string, mimeHint string) (string, error) {
	if mimeHint != "" {
		if !isSyntacticallyValid(mimeHint) {
			return "", errorkind.NewValidation("mime_hint is not syntactically valid type/subtype", nil)
		}
		return mimeHint, nil
	}
	if nameHint != "" {
		ext := strings.ToLower(filepath.Ext(nameHint))
		if mt, ok := byExtension[ext]; ok {
			return mt, nil
		}
	}
	head := buf
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mt := sniffBytes(head)
	if mt == "" {
		return "", errorkind.NewUnsupportedFormat(nameHint)
	}
	return mt, nil
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errorkind.NewIO("failed to open file for mime sniffing", err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(bufio.NewReader(f), buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errorkind.NewIO("failed to read file header for mime sniffing", err)
	}
	return sniffBytes(buf[:n]), nil
}

func sniffBytes(head []byte) string {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if end > len(head) {
			continue
		}
		if string(head[sig.offset:end]) == string(sig.magic) {
			return sig.mimeType
		}
	}
	return ""
}

func isSyntacticallyValid(mt string) bool {
	slash := strings.IndexByte(mt, '/')
	if slash <= 0 || slash == len(mt)-1 {
		return false
	}
	return !strings.ContainsAny(mt, " \t\r\n")
}
