package mailsource

import (
	"time"

	"github.com/rotisserie/eris"
)

type fakeItem struct {
	notMail     bool
	id          string
	idErr       error
	subject     string
	body        string
	html        string
	htmlErr     error
	received    time.Time
	sender      Sender
	attachments []string
	attachErr   error
	panicOn     string
}

func (f *fakeItem) IsMail() bool {
	if f.panicOn == "IsMail" {
		panic("provider exploded")
	}
	return !f.notMail
}

func (f *fakeItem) StableID() (string, error) { return f.id, f.idErr }
func (f *fakeItem) Subject() string           { return f.subject }

func (f *fakeItem) Body() string {
	if f.panicOn == "Body" {
		panic("body unavailable")
	}
	return f.body
}

func (f *fakeItem) HTMLBody() (string, error) {
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	return f.html, nil
}

func (f *fakeItem) ReceivedTime() time.Time { return f.received }
func (f *fakeItem) Sender() Sender          { return f.sender }

func (f *fakeItem) Attachments() ([]string, error) {
	return f.attachments, f.attachErr
}

var errBoom = eris.New("boom")

const multipartMessage = "From: Anna Logist <anna@carrier.example>\r\n" +
	"Sender: Dispatch <dispatch@carrier.example>\r\n" +
	"To: quotes@forwarder.example\r\n" +
	"Subject: Rate request Berlin - Paris\r\n" +
	"Date: Mon, 02 Jun 2025 10:15:00 +0000\r\n" +
	"Message-ID: <abc123@carrier.example>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=\"inner\"\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please quote FTL Berlin to Paris.\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Please quote FTL Berlin to Paris.</p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"cargo.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQK\r\n" +
	"--outer--\r\n"

func plainMessage(id, date, body string) string {
	return "From: ops@shipper.example\r\n" +
		"Subject: quote\r\n" +
		"Date: " + date + "\r\n" +
		"Message-ID: <" + id + ">\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n"
}
