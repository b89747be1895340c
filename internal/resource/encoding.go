package resource

import (
	"crypto/tls"
	"errors"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DetectAndDecode converts a response body to UTF-8. The charset comes from
// the Content-Type header when present, else from detection; on any doubt
// the bytes are passed through as UTF-8, which is what the site serves in
// practice.
func DetectAndDecode(data []byte, contentType string) string {
	if enc := encodingFromContentType(contentType); enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result.Confidence < 80 {
		return string(data)
	}

	enc := encodingByName(result.Charset)
	if enc == nil {
		return string(data)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

func encodingFromContentType(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(strings.ToLower(part))
		if charset, ok := strings.CutPrefix(part, "charset="); ok {
			return encodingByName(strings.Trim(charset, "\"'"))
		}
	}
	return nil
}

// encodingByName covers the charsets Arabic-language sites actually serve:
// UTF variants, the Arabic Windows/ISO pages, and the western fallbacks
// proxies sometimes mislabel content as.
func encodingByName(charset string) encoding.Encoding {
	charset = strings.ReplaceAll(strings.ToLower(charset), "_", "-")
	switch charset {
	case "utf-8", "utf8":
		return unicode.UTF8
	case "utf-16", "utf16", "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "windows-1256", "cp1256":
		return charmap.Windows1256
	case "iso-8859-6", "arabic":
		return charmap.ISO8859_6
	case "windows-1252", "cp1252":
		return charmap.Windows1252
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1
	default:
		return nil
	}
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) {
		return true
	}
	return strings.Contains(err.Error(), "tls:")
}
