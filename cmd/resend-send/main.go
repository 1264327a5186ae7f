// Package main is the entry point for the resend-send command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/shineum/resend-lite/internal/config"
	"github.com/shineum/resend-lite/internal/parser"
	"github.com/shineum/resend-lite/internal/preview"
	"github.com/shineum/resend-lite/resend"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// mailFlags holds the message-related command line flags.
type mailFlags struct {
	from     string
	to       string
	subject  string
	text     string
	html     string
	emlPath  string
	attached listFlag
}

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	dryRun := flag.Bool("dry-run", false, "print the request instead of sending it")
	idempotencyKey := flag.String("idempotency-key", "", "Idempotency-Key header value (default: random UUID)")

	var mf mailFlags
	flag.StringVar(&mf.from, "from", "", "sender address (default: RESEND_FROM)")
	flag.StringVar(&mf.to, "to", "", "comma-separated recipient addresses")
	flag.StringVar(&mf.subject, "subject", "", "message subject")
	flag.StringVar(&mf.text, "text", "", "plain-text body")
	flag.StringVar(&mf.html, "html", "", "HTML body")
	flag.StringVar(&mf.emlPath, "eml", "", "read the message from an RFC 5322 file (- for stdin)")
	flag.Var(&mf.attached, "attach", "file to attach (repeatable)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	mail, err := buildMail(mf, cfg.Resend.From, os.Stdin)
	if err != nil {
		slog.Error("failed to build message", "error", err)
		os.Exit(1)
	}

	if *dryRun {
		if err := preview.New().Print(mail); err != nil {
			slog.Error("failed to print preview", "error", err)
			os.Exit(1)
		}
		return
	}

	if !cfg.ResendConfigured() {
		slog.Error("RESEND_API_KEY is required unless -dry-run is set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	key := *idempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	client := resend.New(resend.Config{
		APIKey:  cfg.Resend.APIKey,
		Timeout: cfg.Resend.Timeout,
	})

	result, err := client.Send(ctx, mail, resend.WithIdempotencyKey(key))
	if err != nil {
		logSendError(err)
		stop()
		os.Exit(1)
	}

	slog.Info("email sent",
		"id", result.ID,
		"idempotency_key", key,
	)
	fmt.Println(result.ID)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// stdout is reserved for the email id
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// buildMail assembles the outgoing mail from flags, or from an .eml file when
// -eml is set. defaultFrom fills in a missing sender.
func buildMail(mf mailFlags, defaultFrom string, stdin io.Reader) (resend.Mail, error) {
	if mf.emlPath != "" {
		return mailFromEML(mf, defaultFrom, stdin)
	}

	if mf.text != "" && mf.html != "" {
		return nil, errors.New("-text and -html are mutually exclusive")
	}

	from := pick(mf.from, defaultFrom)
	to := splitAddresses(mf.to)
	if err := checkAddresses(from, to); err != nil {
		return nil, err
	}

	attachments, err := readAttachments(mf.attached)
	if err != nil {
		return nil, err
	}

	if mf.html != "" {
		return &resend.HTMLMail{
			From:        from,
			To:          to,
			Subject:     mf.subject,
			HTML:        mf.html,
			Attachments: attachments,
		}, nil
	}
	return &resend.TextMail{
		From:        from,
		To:          to,
		Subject:     mf.subject,
		Text:        mf.text,
		Attachments: attachments,
	}, nil
}

// mailFromEML parses an .eml file. -from, -to and -subject override the
// file's headers and -attach appends to the attachments it carries. The body
// always comes from the file, so -text and -html are rejected.
func mailFromEML(mf mailFlags, defaultFrom string, stdin io.Reader) (resend.Mail, error) {
	if mf.text != "" || mf.html != "" {
		return nil, errors.New("-text and -html cannot be combined with -eml")
	}

	var (
		raw []byte
		err error
	)
	if mf.emlPath == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(mf.emlPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	mail, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	extra, err := readAttachments(mf.attached)
	if err != nil {
		return nil, err
	}
	to := splitAddresses(mf.to)

	var checkErr error
	switch m := mail.(type) {
	case *resend.TextMail:
		m.From = pick(mf.from, m.From, defaultFrom)
		if len(to) > 0 {
			m.To = to
		}
		m.Subject = pick(mf.subject, m.Subject)
		m.Attachments = append(m.Attachments, extra...)
		checkErr = checkAddresses(m.From, m.To)
	case *resend.HTMLMail:
		m.From = pick(mf.from, m.From, defaultFrom)
		if len(to) > 0 {
			m.To = to
		}
		m.Subject = pick(mf.subject, m.Subject)
		m.Attachments = append(m.Attachments, extra...)
		checkErr = checkAddresses(m.From, m.To)
	}
	if checkErr != nil {
		return nil, checkErr
	}
	return mail, nil
}

// checkAddresses requires a sender and at least one recipient.
func checkAddresses(from string, to []string) error {
	if from == "" {
		return errors.New("sender is required: set -from or RESEND_FROM")
	}
	if len(to) == 0 {
		return errors.New("at least one recipient is required")
	}
	return nil
}

// readAttachments loads each path into an attachment named after its base
// name. No paths yields nil so the request carries "attachments":null.
func readAttachments(paths []string) ([]resend.Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	attachments := make([]resend.Attachment, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		attachments = append(attachments, resend.Attachment{
			Content:  content,
			Filename: filepath.Base(path),
		})
	}
	return attachments, nil
}

func splitAddresses(raw string) []string {
	var result []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// logSendError logs err with the fields of its concrete kind.
func logSendError(err error) {
	var (
		remoteErr    *resend.RemoteError
		transportErr *resend.TransportError
		parseErr     *resend.ParseError
	)

	switch {
	case errors.As(err, &remoteErr):
		slog.Error("resend rejected the email",
			"status", remoteErr.StatusCode,
			"body", remoteErr.Body,
		)
	case errors.As(err, &transportErr):
		slog.Error("could not reach resend", "error", transportErr.Err)
	case errors.As(err, &parseErr):
		slog.Error("unexpected resend response",
			"error", parseErr.Err,
			"body", parseErr.Body,
		)
	default:
		slog.Error("failed to send email", "error", err)
	}
}
