// Package mailsource adapts mail providers to the narrow item interface the
// ingestion pipeline consumes, and normalizes items into raw messages.
package mailsource

import (
	"context"
	"time"
)

// Item is the capability set the pipeline needs from a provider's mail item.
type Item interface {
	// IsMail reports whether the item is an actual mail message (not a
	// meeting request, receipt or other item class).
	IsMail() bool
	// StableID returns the protocol-level message identifier (Message-ID
	// header). An empty result means the item carries none.
	StableID() (string, error)
	Subject() string
	Body() string
	HTMLBody() (string, error)
	ReceivedTime() time.Time
	Sender() Sender
	Attachments() ([]string, error)
}

// Loader is implemented by items whose content is downloaded on demand.
// Normalize calls Load before reading anything beyond the identifier.
type Loader interface {
	Load() error
}

// Sender carries every sender attribute a provider may expose. Resolve picks
// the first usable one.
type Sender struct {
	// Address is the direct sender address field.
	Address string
	// Object is the sender entry, when the provider exposes one.
	Object *SenderObject
	// OnBehalfOfName is the "sent on behalf of" display name.
	OnBehalfOfName string
}

// SenderObject is a provider's sender/address-entry record.
type SenderObject struct {
	EmailAddress string
	Address      string
	Name         string
}

// UnknownSender is stored when no sender attribute is available.
const UnknownSender = "Unknown"

// Resolve walks the fallback chain: direct address, sender object email,
// sender object address, sender object name, on-behalf-of name, Unknown.
func (s Sender) Resolve() string {
	candidates := []string{s.Address}
	if s.Object != nil {
		candidates = append(candidates, s.Object.EmailAddress, s.Object.Address, s.Object.Name)
	}
	candidates = append(candidates, s.OnBehalfOfName)
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return UnknownSender
}

// Source is a mailbox the ingestion pass reads from.
type Source interface {
	// Items returns the mailbox contents sorted by received time, newest first.
	Items(ctx context.Context) (Iterator, error)
	Close() error
}

// Iterator streams items one at a time.
type Iterator interface {
	Next() bool
	Item() Item
	Err() error
	Close() error
}

// sliceIterator yields a fixed list of items.
type sliceIterator struct {
	items []Item
	idx   int
}

// NewSliceIterator returns an Iterator over items in the given order.
func NewSliceIterator(items []Item) Iterator {
	return &sliceIterator{items: items, idx: -1}
}

func (it *sliceIterator) Next() bool {
	if it.idx+1 < len(it.items) {
		it.idx++
		return true
	}
	return false
}

func (it *sliceIterator) Item() Item   { return it.items[it.idx] }
func (it *sliceIterator) Err() error   { return nil }
func (it *sliceIterator) Close() error { return nil }

// brokenItem stands in for a message that could not be read, so the failure
// is reported for that item alone.
type brokenItem struct {
	err error
}

func (b brokenItem) IsMail() bool                   { return true }
func (b brokenItem) StableID() (string, error)      { return "", b.err }
func (b brokenItem) Subject() string                { return "" }
func (b brokenItem) Body() string                   { return "" }
func (b brokenItem) HTMLBody() (string, error)      { return "", b.err }
func (b brokenItem) ReceivedTime() time.Time        { return time.Time{} }
func (b brokenItem) Sender() Sender                 { return Sender{} }
func (b brokenItem) Attachments() ([]string, error) { return nil, b.err }
