// Package mail sends generated quotes as email attachments over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// Params identify and authenticate against the submission server.
type Params struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (p Params) addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

type Message struct {
	From           string
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Sender submits one message per call over a STARTTLS upgraded connection
// with PLAIN authentication. Nothing is retried.
type Sender struct {
	dial      DialFunc
	tlsConfig func(host string) *tls.Config
	timeout   time.Duration
	log       zerolog.Logger
}

type Option func(*Sender)

func WithDialer(d DialFunc) Option { return func(s *Sender) { s.dial = d } }

func WithTLSConfig(f func(host string) *tls.Config) Option {
	return func(s *Sender) { s.tlsConfig = f }
}

// WithTimeout bounds the whole exchange. Zero means no limit.
func WithTimeout(d time.Duration) Option { return func(s *Sender) { s.timeout = d } }

func NewSender(log zerolog.Logger, opts ...Option) *Sender {
	s := &Sender{
		dial: (&net.Dialer{}).DialContext,
		tlsConfig: func(host string) *tls.Config {
			return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
		},
		log: log.With().Str("component", "mail").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Sender) SendWithAttachment(ctx context.Context, p Params, m Message) error {
	if _, err := os.Stat(m.AttachmentPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrAttachmentNotFound, m.AttachmentPath)
		}
		return fmt.Errorf("stat attachment: %w", err)
	}
	data, err := os.ReadFile(m.AttachmentPath)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	msg, err := BuildMessage(m, data)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.submit(ctx, p, m, msg); err != nil {
		s.log.Error().Err(err).Str("host", p.Host).Str("to", m.To).Msg("send failed")
		return err
	}
	s.log.Info().Str("host", p.Host).Str("to", m.To).Int("bytes", len(msg)).
		Dur("took", time.Since(start)).Msg("email sent")
	return nil
}

func (s *Sender) submit(ctx context.Context, p Params, m Message, msg []byte) error {
	conn, err := s.dial(ctx, "tcp", p.addr())
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", p.addr(), err)
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, p.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return fmt.Errorf("smtp ehlo: %w", err)
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errors.New("smtp: server does not support STARTTLS")
	}
	if err := c.StartTLS(s.tlsConfig(p.Host)); err != nil {
		return fmt.Errorf("smtp starttls: %w", err)
	}
	if err := c.Auth(smtp.PlainAuth("", p.Username, p.Password, p.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(m.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(m.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

var compressedExt = map[string]bool{".gz": true, ".bz2": true, ".xz": true, ".z": true, ".br": true}

// ContentType guesses an attachment type from its extension. Unknown and
// compressed files are sent as application/octet-stream.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || compressedExt[ext] {
		return "application/octet-stream"
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

// BuildMessage renders a multipart/mixed message with a plain text body and
// a single base64 attachment.
func BuildMessage(m Message, attachment []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.From)
	fmt.Fprintf(&buf, "To: %s\r\n", m.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(body)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	name := filepath.Base(m.AttachmentPath)
	mediaType, params, err := mime.ParseMediaType(ContentType(m.AttachmentPath))
	if err != nil {
		mediaType, params = "application/octet-stream", map[string]string{}
	}
	params["name"] = name
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(mediaType, params)},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(attachment)
	for len(enc) > 76 {
		part.Write([]byte(enc[:76] + "\r\n"))
		enc = enc[76:]
	}
	part.Write([]byte(enc + "\r\n"))

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
