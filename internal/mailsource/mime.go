package mailsource

import (
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

func init() {
	message.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "mime: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
}

// MIMEItem is an Item parsed from an RFC 5322 message.
type MIMEItem struct {
	messageID   string
	subject     string
	text        string
	html        string
	date        time.Time
	received    time.Time
	sender      Sender
	attachments []string
	attachErr   error
}

// ParseMIME reads a full RFC 5322 message. Parts that fail to decode are
// skipped; an attachment listing failure is kept and reported by
// Attachments.
func ParseMIME(r io.Reader) (*MIMEItem, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, eris.Wrap(err, "mime: create reader")
	}
	defer mr.Close() //nolint:errcheck

	h := mr.Header
	item := &MIMEItem{}

	if id, err := h.MessageID(); err == nil {
		item.messageID = id
	}
	if subject, err := h.Subject(); err == nil {
		item.subject = subject
	} else {
		item.subject = h.Get("Subject")
	}
	if date, err := h.Date(); err == nil {
		item.date = date
	}
	item.sender = headerSender(h)

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			item.attachErr = eris.Wrap(err, "mime: next part")
			break
		}

		switch ph := p.Header.(type) {
		case *mail.InlineHeader:
			ct, _, err := ph.ContentType()
			if err != nil {
				continue
			}
			body, err := io.ReadAll(p.Body)
			if err != nil {
				continue
			}
			switch ct {
			case "text/plain":
				if item.text == "" {
					item.text = string(body)
				}
			case "text/html":
				if item.html == "" {
					item.html = string(body)
				}
			}
		case *mail.AttachmentHeader:
			name, err := ph.Filename()
			if err != nil || name == "" {
				continue
			}
			item.attachments = append(item.attachments, name)
		}
	}

	return item, nil
}

func headerSender(h mail.Header) Sender {
	var s Sender
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		s.Address = from[0].Address
		if s.Address == "" {
			s.OnBehalfOfName = from[0].Name
		}
	} else if raw := strings.TrimSpace(h.Get("From")); raw != "" {
		s.Object = &SenderObject{Name: raw}
	}
	if sender, err := h.AddressList("Sender"); err == nil && len(sender) > 0 {
		if s.Object == nil {
			s.Object = &SenderObject{}
		}
		s.Object.EmailAddress = sender[0].Address
		if s.Object.Name == "" {
			s.Object.Name = sender[0].Name
		}
	}
	return s
}

// WithReceived overrides the received time, which otherwise falls back to
// the Date header.
func (m *MIMEItem) WithReceived(t time.Time) *MIMEItem {
	m.received = t
	return m
}

func (m *MIMEItem) IsMail() bool              { return true }
func (m *MIMEItem) StableID() (string, error) { return m.messageID, nil }
func (m *MIMEItem) Subject() string           { return m.subject }
func (m *MIMEItem) Sender() Sender            { return m.sender }

// Body returns the text/plain part.
func (m *MIMEItem) Body() string { return m.text }

// HTMLBody returns the text/html part, or an error when the message has none.
func (m *MIMEItem) HTMLBody() (string, error) {
	if m.html == "" {
		return "", eris.New("mime: no html part")
	}
	return m.html, nil
}

func (m *MIMEItem) ReceivedTime() time.Time {
	if !m.received.IsZero() {
		return m.received
	}
	return m.date
}

func (m *MIMEItem) Attachments() ([]string, error) {
	if m.attachErr != nil {
		return nil, m.attachErr
	}
	return m.attachments, nil
}
