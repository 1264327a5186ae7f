// Package preview renders Resend mails as human-readable text for dry runs.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/resend-lite/resend"
)

const separator = "========================================\n"

// Printer writes mail summaries to an output stream.
type Printer struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a Printer that writes to os.Stdout.
func New() *Printer {
	return &Printer{writer: os.Stdout}
}

// NewWithWriter creates a Printer that writes to w.
func NewWithWriter(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// Print writes a summary of m followed by the exact request body.
func (p *Printer) Print(m resend.Mail) error {
	var (
		from, subject, kind, body string
		to                        []string
		attachments               []resend.Attachment
	)

	switch v := m.(type) {
	case *resend.TextMail:
		if v == nil {
			return resend.ErrNilMail
		}
		from, to, subject, kind, body, attachments = v.From, v.To, v.Subject, "text", v.Text, v.Attachments
	case *resend.HTMLMail:
		if v == nil {
			return resend.ErrNilMail
		}
		from, to, subject, kind, body, attachments = v.From, v.To, v.Subject, "html", v.HTML, v.Attachments
	case resend.TextMail:
		from, to, subject, kind, body, attachments = v.From, v.To, v.Subject, "text", v.Text, v.Attachments
	case resend.HTMLMail:
		from, to, subject, kind, body, attachments = v.From, v.To, v.Subject, "html", v.HTML, v.Attachments
	default:
		return resend.ErrNilMail
	}

	reqBody, err := resend.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	var b strings.Builder

	b.WriteString(separator)
	fmt.Fprintf(&b, "From: %s\n", from)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Body (%s):\n", kind)
	b.WriteString(body + "\n")

	if len(attachments) > 0 {
		names := make([]string, 0, len(attachments))
		for _, att := range attachments {
			names = append(names, fmt.Sprintf("%s (%s)", att.Filename, formatSize(len(att.Content))))
		}
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(names, ", "))
	}

	b.WriteString(separator)
	b.Write(reqBody)
	b.WriteString("\n")

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
