package mailsource

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Alibek88alarko/LogiGo2/internal/model"
)

// Normalizer converts provider items into raw messages. Failures affect only
// the item at hand.
type Normalizer struct {
	log *zap.Logger
}

// NewNormalizer creates a Normalizer logging to log.
func NewNormalizer(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// Identify returns the item's stable identifier. ok is false for non-mail
// items and for mail without a protocol identifier.
func (n *Normalizer) Identify(it Item) (id string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("mailsource: identify panicked", zap.Any("panic", r))
			id, ok = "", false
		}
	}()

	if !it.IsMail() {
		n.log.Debug("mailsource: skipping non-mail item")
		return "", false
	}
	id, err := it.StableID()
	if err != nil {
		n.log.Warn("mailsource: read message id", zap.Error(err))
		return "", false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		n.log.Warn("mailsource: message without Message-ID skipped",
			zap.String("subject", it.Subject()),
			zap.Time("received_time", it.ReceivedTime()),
		)
		return "", false
	}
	return id, true
}

// Normalize builds the canonical record for it. ok is false when the item
// cannot be identified or reading it fails.
func (n *Normalizer) Normalize(it Item) (msg *model.RawMessage, ok bool) {
	id, ok := n.Identify(it)
	if !ok {
		return nil, false
	}
	log := n.log.With(zap.String("stable_id", id))

	defer func() {
		if r := recover(); r != nil {
			log.Error("mailsource: normalize panicked", zap.String("panic", fmt.Sprint(r)))
			msg, ok = nil, false
		}
	}()

	if l, lazy := it.(Loader); lazy {
		if err := l.Load(); err != nil {
			log.Warn("mailsource: message content unavailable", zap.Error(err))
			return nil, false
		}
	}

	html, err := it.HTMLBody()
	if err != nil {
		log.Debug("mailsource: html body unavailable", zap.Error(err))
		html = ""
	}

	attachments, err := it.Attachments()
	if err != nil {
		log.Warn("mailsource: attachments unavailable", zap.Error(err))
		attachments = nil
	}
	if attachments == nil {
		attachments = []string{}
	}

	return &model.RawMessage{
		StableID:     id,
		Subject:      it.Subject(),
		Sender:       it.Sender().Resolve(),
		ReceivedTime: it.ReceivedTime(),
		Body:         it.Body(),
		HTMLBody:     html,
		Attachments:  attachments,
	}, true
}
