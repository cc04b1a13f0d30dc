package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/smtp"
	"time"

	"docflow/internal/config"
	"docflow/internal/model"
	"docflow/internal/storage"
)

var sendMail = smtp.SendMail

// SMTP delivers document notifications by email. The stored payload is
// attached when the object store can supply it.
type SMTP struct {
	cfg     config.SMTPConfig
	objects storage.Storage
}

// NewSMTP creates the SMTP notifier. objects may be nil; notifications are
// then sent without the file attachment.
func NewSMTP(cfg config.SMTPConfig, objects storage.Storage) *SMTP {
	return &SMTP{cfg: cfg, objects: objects}
}

var _ Notifier = (*SMTP)(nil)

// IsConfigured reports whether enough settings are present to send mail.
func (s *SMTP) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.From != ""
}

// Send composes and delivers the notification email. All transport errors are
// mapped to ErrFailed.
func (s *SMTP) Send(ctx context.Context, doc model.Document, recipient, message string) (Receipt, error) {
	if !s.IsConfigured() {
		return Receipt{}, fmt.Errorf("%w: smtp not configured", ErrFailed)
	}

	var attachment []byte
	if s.objects != nil && doc.StoragePath != "" {
		body, _, err := s.objects.Get(ctx, doc.StoragePath)
		if err != nil {
			return Receipt{}, fmt.Errorf("%w: fetch payload: %v", ErrFailed, err)
		}
		attachment, err = io.ReadAll(body)
		body.Close()
		if err != nil {
			return Receipt{}, fmt.Errorf("%w: read payload: %v", ErrFailed, err)
		}
	}

	msg := composeMessage(s.cfg.From, recipient, doc, message, attachment)

	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := sendMail(addr, auth, s.cfg.From, []string{recipient}, msg); err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	return Receipt{Transport: "smtp", SentAt: time.Now().UTC()}, nil
}

// composeMessage builds a multipart MIME message: the operator message plus
// the analysis summary as text, and the original file as an attachment.
func composeMessage(from, to string, doc model.Document, message string, attachment []byte) []byte {
	summary := "not available"
	if doc.Analysis != nil {
		summary = doc.Analysis.Summary
	}

	const boundary = "docflow-mixed"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: Document: %s\r\n", doc.Name)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\nSummary:\r\n%s\r\n", message, summary)

	if attachment != nil {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: application/octet-stream\r\n")
		fmt.Fprintf(&msg, "Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=%q\r\n", doc.Name)
		fmt.Fprintf(&msg, "\r\n")
		encodeBase64Wrapped(&msg, attachment)
		fmt.Fprintf(&msg, "\r\n")
	}

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

// encodeBase64Wrapped writes base64 content in 76-character lines per RFC 2045.
func encodeBase64Wrapped(w *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		w.WriteString(encoded[:76])
		w.WriteString("\r\n")
		encoded = encoded[76:]
	}
	w.WriteString(encoded)
}
