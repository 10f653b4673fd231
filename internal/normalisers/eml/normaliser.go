// Package eml parses RFC 822 messages into ingest requests.
package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// MaxMessageSize is the largest message file NormaliseFile will read.
const MaxMessageSize = 25 << 20

// Extension is the file extension of RFC 822 message files.
const Extension = ".eml"

// Normaliser converts .eml content to an ingest request.
type Normaliser struct {
	words *mime.WordDecoder
}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{words: &mime.WordDecoder{CharsetReader: charsetReader}}
}

// NormaliseFile reads and normalises a message file.
func (n *Normaliser) NormaliseFile(path string) (domain.IngestRequest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.IngestRequest{}, fmt.Errorf("reading message: %w", err)
	}
	if info.Size() > MaxMessageSize {
		return domain.IngestRequest{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, path, MaxMessageSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.IngestRequest{}, fmt.Errorf("reading message: %w", err)
	}
	return n.Normalise(content, path)
}

// Normalise parses a message. The subject falls back to a title derived
// from name when the message carries none.
func (n *Normaliser) Normalise(content []byte, name string) (domain.IngestRequest, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return domain.IngestRequest{}, fmt.Errorf("%w: parsing message: %v", domain.ErrInvalidInput, err)
	}

	body, err := n.extractBody(msg.Header, msg.Body)
	if err != nil {
		return domain.IngestRequest{}, err
	}

	subject := n.decodeHeader(msg.Header.Get("Subject"))
	if subject == "" && name != "" {
		subject = titleFromName(name)
	}

	return domain.IngestRequest{
		Body:    strings.TrimSpace(body),
		Sender:  n.sender(msg.Header.Get("From")),
		Subject: subject,
	}, nil
}

// sender renders the From header as "Name <addr>" with encoded words decoded.
func (n *Normaliser) sender(from string) string {
	if from == "" {
		return ""
	}
	parser := mail.AddressParser{WordDecoder: n.words}
	addr, err := parser.Parse(from)
	if err != nil {
		return n.decodeHeader(from)
	}
	if addr.Name == "" {
		return addr.Address
	}
	return fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
}

func (n *Normaliser) decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := n.words.DecodeHeader(header)
	if err != nil {
		return strings.TrimSpace(header)
	}
	return strings.TrimSpace(decoded)
}

// mimeHeader is the subset of MIME header access the body walker needs.
type mimeHeader interface {
	Get(key string) string
}

func (n *Normaliser) extractBody(h mimeHeader, r io.Reader) (string, error) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return n.extractMultipart(r, params["boundary"])
	}

	text, err := decodePart(r, h.Get("Content-Transfer-Encoding"), params["charset"])
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrInvalidInput, err)
	}
	if mediaType == "text/html" {
		return stripHTML(text), nil
	}
	return text, nil
}

// extractMultipart prefers text/plain parts over text/html ones.
func (n *Normaliser) extractMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	mr := multipart.NewReader(r, boundary)
	var plain, rich []string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, perr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if perr != nil {
			mediaType = "text/plain"
		}
		if part.FileName() != "" {
			part.Close()
			continue
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, nerr := n.extractMultipart(part, params["boundary"])
			if nerr == nil && nested != "" {
				plain = append(plain, nested)
			}
		case mediaType == "text/plain" || mediaType == "text/html":
			// multipart.Reader already strips quoted-printable.
			text, derr := decodePart(part, part.Header.Get("Content-Transfer-Encoding"), params["charset"])
			switch {
			case derr != nil:
			case mediaType == "text/html":
				rich = append(rich, stripHTML(text))
			default:
				plain = append(plain, text)
			}
		}
		part.Close()
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}

func decodePart(r io.Reader, transferEncoding, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	if cr, err := charsetReader(charset, r); err == nil {
		r = cr
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// charsetReader decodes legacy charsets such as euc-kr or iso-2022-jp.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

var (
	blockTags = regexp.MustCompile(`(?i)<(br|/p|/div|/li|/tr|/h[1-6])[^>]*>`)
	dropTags  = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
)

// stripHTML reduces an HTML body to its text, one line per block.
func stripHTML(s string) string {
	s = dropTags.ReplaceAllString(s, "")
	s = blockTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// titleFromName turns "/mail/quarterly_review-notes.eml" into "quarterly review notes".
func titleFromName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	return strings.ReplaceAll(base, "-", " ")
}
