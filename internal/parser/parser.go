// Package parser turns RFC 5322 messages (.eml files) into Resend mails.
package parser

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/shineum/resend-lite/resend"
)

// draft collects the parts of a message before it is committed to one of
// the two mail variants.
type draft struct {
	from        string
	to          []string
	subject     string
	text        string
	html        string
	attachments []resend.Attachment
}

// Parse parses a raw RFC 5322 message. A message with an HTML body becomes a
// *resend.HTMLMail and its plain-text alternative is dropped; anything else
// becomes a *resend.TextMail. Cc and Bcc recipients are not carried over.
func Parse(raw []byte) (resend.Mail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	d := &draft{
		from:    msg.Header.Get("From"),
		subject: decodeHeader(msg.Header.Get("Subject")),
		to:      parseAddressList(msg.Header.Get("To")),
	}

	if cc, bcc := msg.Header.Get("Cc"), msg.Header.Get("Bcc"); cc != "" || bcc != "" {
		slog.Warn("cc and bcc recipients are not forwarded",
			"cc", cc,
			"bcc", bcc,
		)
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// If content type is unparseable, treat as plain text
		slog.Warn("failed to parse content type, treating as plain text",
			"content_type", contentType,
			"error", err,
		)
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read message body: %w", readErr)
		}
		d.text = string(body)
		return d.mail(), nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, errors.New("multipart message missing boundary")
		}
		if err := d.parseMultipart(msg.Body, boundary); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return d.mail(), nil
	}

	body, err := readContent(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	switch mediaType {
	case "text/plain":
		d.text = string(body)
	case "text/html":
		d.html = string(body)
	default:
		slog.Warn("unrecognized top-level content type",
			"content_type", mediaType,
		)
		d.text = string(body)
	}

	return d.mail(), nil
}

// mail commits the draft to a mail variant. Attachments stay nil when none
// were found so that the request carries "attachments":null.
func (d *draft) mail() resend.Mail {
	if d.html != "" {
		return &resend.HTMLMail{
			From:        d.from,
			To:          d.to,
			Subject:     d.subject,
			HTML:        d.html,
			Attachments: d.attachments,
		}
	}
	return &resend.TextMail{
		From:        d.from,
		To:          d.to,
		Subject:     d.subject,
		Text:        d.text,
		Attachments: d.attachments,
	}
}

// parseMultipart walks a multipart body, keeping the first text/plain and
// text/html parts and collecting attachments.
func (d *draft) parseMultipart(body io.Reader, boundary string) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			nestedBoundary := params["boundary"]
			if nestedBoundary == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := d.parseMultipart(part, nestedBoundary); err != nil {
				slog.Warn("failed to parse nested multipart",
					"error", err,
				)
			}
			continue
		}

		content, err := readContent(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			slog.Warn("failed to read part content",
				"content_type", mediaType,
				"error", err,
			)
			continue
		}

		disposition := part.Header.Get("Content-Disposition")
		if strings.HasPrefix(strings.ToLower(disposition), "attachment") {
			d.attach(extractFilename(part, mediaType, params), content)
			continue
		}

		switch mediaType {
		case "text/plain":
			if d.text == "" {
				d.text = string(content)
			}
		case "text/html":
			if d.html == "" {
				d.html = string(content)
			}
		default:
			// Inline parts that still name a file are kept as attachments
			if part.FileName() != "" || params["name"] != "" {
				d.attach(extractFilename(part, mediaType, params), content)
				continue
			}
			slog.Warn("unrecognized MIME part, skipping",
				"content_type", mediaType,
				"disposition", disposition,
			)
		}
	}

	return nil
}

func (d *draft) attach(filename string, content []byte) {
	d.attachments = append(d.attachments, resend.Attachment{
		Content:  content,
		Filename: filename,
	})
}

// readContent reads r fully and undoes a base64 or quoted-printable
// Content-Transfer-Encoding. Multipart parts arrive with quoted-printable
// already decoded and the header removed.
func readContent(r io.Reader, encoding string) ([]byte, error) {
	encoding = strings.ToLower(strings.TrimSpace(encoding))
	if encoding == "quoted-printable" {
		decoded, err := io.ReadAll(quotedprintable.NewReader(r))
		if err != nil {
			return nil, fmt.Errorf("failed to decode quoted-printable content: %w", err)
		}
		return decoded, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if encoding != "base64" {
		return raw, nil
	}

	cleaned := strings.NewReplacer("\r", "", "\n", "", " ", "").Replace(string(raw))
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		// Try with RawStdEncoding for unpadded base64
		decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 content: %w", err)
		}
	}
	return decoded, nil
}

// extractFilename picks the Content-Disposition filename, then the
// Content-Type name parameter, then a name derived from the media type.
func extractFilename(part *multipart.Part, mediaType string, params map[string]string) string {
	if fn := part.FileName(); fn != "" {
		return fn
	}
	if name := params["name"]; name != "" {
		return decodeHeader(name)
	}
	if _, subtype, ok := strings.Cut(mediaType, "/"); ok && subtype != "" {
		return "attachment." + subtype
	}
	return "attachment"
}

// decodeHeader decodes RFC 2047 encoded-words, returning the input unchanged
// when it cannot be decoded.
func decodeHeader(v string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// parseAddressList splits an address header into bare addresses.
func parseAddressList(raw string) []string {
	if raw == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		// Fall back to simple comma split if RFC 5322 parsing fails
		parts := strings.Split(raw, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, addr.Address)
	}
	return result
}
