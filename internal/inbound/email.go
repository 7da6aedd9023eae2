// Package inbound turns raw inbound artifacts (RFC 822 mail, JSON envelopes
// dropped into a spool directory) into messages for the channel adapters.
package inbound

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/hebbarp/todo-management/internal/core/messaging"
	"github.com/hebbarp/todo-management/internal/core/todo"
)

var (
	// ErrNoMessageID is returned for mail without a Message-ID header.
	ErrNoMessageID = errors.New("email has no Message-ID")
	// ErrNoTextPart is returned when a multipart mail carries no text/plain part.
	ErrNoTextPart = errors.New("email has no text/plain part")
)

var headerDecoder = new(mime.WordDecoder)

// ParseEmail reads one RFC 822 message and returns it as an email Inbound.
// The Message-ID is mandatory since it keys the dedup ledger.
func ParseEmail(r io.Reader) (messaging.Inbound, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return messaging.Inbound{}, fmt.Errorf("read email: %w", err)
	}

	id := strings.TrimSpace(msg.Header.Get("Message-ID"))
	if id == "" {
		return messaging.Inbound{}, ErrNoMessageID
	}

	sender := msg.Header.Get("From")
	if addr, err := mail.ParseAddress(sender); err == nil {
		sender = addr.Address
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := headerDecoder.DecodeHeader(subject); err == nil {
		subject = decoded
	}

	received, err := msg.Header.Date()
	if err != nil {
		received = time.Now()
	}

	body, err := textBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return messaging.Inbound{}, err
	}

	return messaging.Inbound{
		ID:         id,
		Channel:    todo.ChannelEmail,
		Sender:     strings.TrimSpace(sender),
		Subject:    strings.TrimSpace(subject),
		Text:       strings.TrimSpace(body),
		ReceivedAt: received,
	}, nil
}

// textBody returns the first text/plain content, descending into multipart
// bodies.
func textBody(contentType, encoding string, body io.Reader) (string, error) {
	mediaType := "text/plain"
	var params map[string]string
	if contentType != "" {
		mt, p, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", fmt.Errorf("parse content type: %w", err)
		}
		mediaType, params = mt, p
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return "", ErrNoTextPart
			}
			if err != nil {
				return "", fmt.Errorf("read multipart: %w", err)
			}

			// multipart.Part decodes quoted-printable itself and drops the header.
			text, err := textBody(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
			if errors.Is(err, ErrNoTextPart) {
				continue
			}
			return text, err
		}
	}

	if mediaType != "text/plain" {
		return "", ErrNoTextPart
	}

	data, err := io.ReadAll(decodeTransfer(encoding, body))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &newlineStripper{r: r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes cleanly.
type newlineStripper struct {
	r io.Reader
}

func (n *newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		out := p[:0]
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				out = append(out, b)
			}
		}
		if len(out) > 0 || err != nil {
			return len(out), err
		}
	}
}
