package mailsource

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// IMAPClient is the subset of *client.Client used by IMAPSource.
type IMAPClient interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// IMAPConfig holds connection settings for an IMAP mailbox.
type IMAPConfig struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	Timeout  time.Duration
}

// IMAPSource reads a mailbox over IMAP. Bodies are fetched lazily, one
// message at a time and only for messages the pipeline has not stored.
type IMAPSource struct {
	client   IMAPClient
	mailbox  string
	log      *zap.Logger
	failures int
}

// DialIMAP connects over TLS and logs in.
func DialIMAP(cfg IMAPConfig, log *zap.Logger) (*IMAPSource, error) {
	if cfg.Addr == "" {
		return nil, eris.New("imap: address is required")
	}
	c, err := client.DialTLS(cfg.Addr, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "imap: dial %s", cfg.Addr)
	}
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, eris.Wrap(err, "imap: login")
	}
	return NewIMAPSource(c, cfg.Mailbox, log), nil
}

// NewIMAPSource wraps an already authenticated client.
func NewIMAPSource(c IMAPClient, mailbox string, log *zap.Logger) *IMAPSource {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IMAPSource{client: c, mailbox: mailbox, log: log}
}

// maxFetchFailures is how many body downloads in a row may fail before the
// connection is considered lost and the pass stops.
const maxFetchFailures = 3

// imapRef is what the listing step knows about a message before its body is
// downloaded.
type imapRef struct {
	uid       uint32
	date      time.Time
	messageID string
}

// Items selects the mailbox read-only and returns its messages newest first.
// Only envelopes are fetched here; bodies are downloaded by Load once the
// pipeline decides a message is new.
func (s *IMAPSource) Items(ctx context.Context) (Iterator, error) {
	if _, err := s.client.Select(s.mailbox, true); err != nil {
		return nil, eris.Wrapf(err, "imap: select %s", s.mailbox)
	}

	uids, err := s.client.UidSearch(imap.NewSearchCriteria())
	if err != nil {
		return nil, eris.Wrap(err, "imap: search")
	}
	if len(uids) == 0 {
		return NewSliceIterator(nil), nil
	}

	set := new(imap.SeqSet)
	set.AddNum(uids...)

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(set, []imap.FetchItem{imap.FetchUid, imap.FetchInternalDate, imap.FetchEnvelope}, ch)
	}()

	order := make([]imapRef, 0, len(uids))
	for m := range ch {
		ref := imapRef{uid: m.Uid, date: m.InternalDate}
		if m.Envelope != nil {
			ref.messageID = envelopeMessageID(m.Envelope.MessageId)
		}
		order = append(order, ref)
	}
	if err := <-done; err != nil {
		return nil, eris.Wrap(err, "imap: fetch envelopes")
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].date.Equal(order[j].date) {
			return order[i].uid > order[j].uid
		}
		return order[i].date.After(order[j].date)
	})

	s.log.Debug("imap: mailbox listed",
		zap.String("mailbox", s.mailbox),
		zap.Int("messages", len(order)),
	)

	return &imapIterator{ctx: ctx, src: s, order: order, idx: -1}, nil
}

// Close logs out.
func (s *IMAPSource) Close() error {
	if err := s.client.Logout(); err != nil {
		return eris.Wrap(err, "imap: logout")
	}
	return nil
}

// envelopeMessageID strips the angle brackets the header value carries, so
// ids match the ones parsed from full bodies.
func envelopeMessageID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimPrefix(id, "<")
	return strings.TrimSuffix(id, ">")
}

// fetchBody downloads one message without setting \Seen. The source's
// failure streak is updated either way.
func (s *IMAPSource) fetchBody(ref imapRef) (*MIMEItem, error) {
	item, err := s.downloadBody(ref)
	if err != nil {
		s.failures++
		return nil, err
	}
	s.failures = 0
	return item, nil
}

func (s *IMAPSource) downloadBody(ref imapRef) (*MIMEItem, error) {
	set := new(imap.SeqSet)
	set.AddNum(ref.uid)
	section := &imap.BodySectionName{Peek: true}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(set, []imap.FetchItem{section.FetchItem(), imap.FetchInternalDate, imap.FetchUid}, ch)
	}()

	var msg *imap.Message
	for m := range ch {
		msg = m
	}
	if err := <-done; err != nil {
		return nil, eris.Wrapf(err, "imap: fetch uid %d", ref.uid)
	}
	if msg == nil {
		return nil, eris.Errorf("imap: no message for uid %d", ref.uid)
	}

	for _, lit := range msg.Body {
		if lit == nil {
			continue
		}
		item, err := ParseMIME(lit)
		if err != nil {
			return nil, eris.Wrapf(err, "imap: parse uid %d", ref.uid)
		}
		received := msg.InternalDate
		if received.IsZero() {
			received = ref.date
		}
		return item.WithReceived(received), nil
	}
	return nil, eris.Errorf("imap: empty body for uid %d", ref.uid)
}

type imapIterator struct {
	ctx   context.Context
	src   *IMAPSource
	order []imapRef
	idx   int
	cur   Item
	err   error
}

func (it *imapIterator) Next() bool {
	if it.err != nil || it.idx+1 >= len(it.order) {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = eris.Wrap(err, "imap: iterate")
		return false
	}
	if it.src.failures >= maxFetchFailures {
		it.err = eris.Errorf("imap: %d body fetches failed in a row", it.src.failures)
		return false
	}
	it.idx++
	it.cur = &imapItem{src: it.src, ref: it.order[it.idx]}
	return true
}

func (it *imapIterator) Item() Item   { return it.cur }
func (it *imapIterator) Err() error   { return it.err }
func (it *imapIterator) Close() error { return nil }

// imapItem answers StableID from the envelope and downloads the body on
// Load, or on first use when the envelope had no Message-ID.
type imapItem struct {
	src    *IMAPSource
	ref    imapRef
	loaded bool
	mime   *MIMEItem
	err    error
}

func (i *imapItem) Load() error {
	if !i.loaded {
		i.loaded = true
		i.mime, i.err = i.src.fetchBody(i.ref)
	}
	return i.err
}

// content returns the downloaded message, or a broken stand-in when the
// download failed.
func (i *imapItem) content() Item {
	if err := i.Load(); err != nil {
		return brokenItem{err: err}
	}
	return i.mime
}

func (i *imapItem) IsMail() bool { return true }

func (i *imapItem) StableID() (string, error) {
	if i.ref.messageID != "" {
		return i.ref.messageID, nil
	}
	return i.content().StableID()
}

func (i *imapItem) Subject() string                { return i.content().Subject() }
func (i *imapItem) Body() string                   { return i.content().Body() }
func (i *imapItem) HTMLBody() (string, error)      { return i.content().HTMLBody() }
func (i *imapItem) Sender() Sender                 { return i.content().Sender() }
func (i *imapItem) Attachments() ([]string, error) { return i.content().Attachments() }

func (i *imapItem) ReceivedTime() time.Time {
	if !i.loaded && !i.ref.date.IsZero() {
		return i.ref.date
	}
	if t := i.content().ReceivedTime(); !t.IsZero() {
		return t
	}
	return i.ref.date
}
