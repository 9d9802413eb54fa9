package mailsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

const (
	graphBaseURL      = "https://graph.microsoft.com/v1.0"
	graphScope        = "https://graph.microsoft.com/.default"
	graphMessageType  = "#microsoft.graph.message"
	graphSelectFields = "id,internetMessageId,subject,body,from,sender,receivedDateTime,hasAttachments"
)

// GraphConfig holds settings for a Microsoft Graph mailbox.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// User is the mailbox owner (UPN or id). App-only tokens have no
	// signed-in user, so it is required.
	User     string
	Folder   string
	PageSize int
	BaseURL  string
}

// GraphSource reads a mail folder through the Microsoft Graph API.
type GraphSource struct {
	client   *http.Client
	baseURL  string
	mailbox  string
	folder   string
	pageSize int
	log      *zap.Logger
}

// NewGraphClient returns an HTTP client authorized with the client
// credentials grant against the tenant's Azure AD endpoint.
func NewGraphClient(ctx context.Context, cfg GraphConfig) (*http.Client, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, eris.New("graph: tenant_id, client_id and client_secret are required")
	}
	if cfg.User == "" {
		return nil, eris.New("graph: user is required for client credentials")
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     microsoft.AzureADEndpoint(cfg.TenantID).TokenURL,
		Scopes:       []string{graphScope},
	}
	return cc.Client(ctx), nil
}

// NewGraphSource creates a GraphSource using an authorized client.
func NewGraphSource(client *http.Client, cfg GraphConfig, log *zap.Logger) *GraphSource {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = graphBaseURL
	}
	mailbox := "/users/" + url.PathEscape(cfg.User)
	folder := cfg.Folder
	if folder == "" {
		folder = "inbox"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GraphSource{
		client:   client,
		baseURL:  base,
		mailbox:  mailbox,
		folder:   folder,
		pageSize: pageSize,
		log:      log,
	}
}

// Items pages through the folder ordered by receivedDateTime descending.
func (s *GraphSource) Items(ctx context.Context) (Iterator, error) {
	params := url.Values{}
	params.Set("$top", fmt.Sprintf("%d", s.pageSize))
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$select", graphSelectFields)
	first := fmt.Sprintf("%s%s/mailFolders/%s/messages?%s",
		s.baseURL, s.mailbox, url.PathEscape(s.folder), params.Encode())

	it := &graphIterator{ctx: ctx, src: s, next: first}
	if !it.fetchPage() {
		return nil, it.err
	}
	return it, nil
}

// Close is a no-op; the HTTP client holds no session.
func (s *GraphSource) Close() error { return nil }

func (s *GraphSource) get(ctx context.Context, rawURL string, preferText bool, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "graph: build request")
	}
	if preferText {
		req.Header.Set("Prefer", `outlook.body-content-type="text"`)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "graph: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return eris.Errorf("graph: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return eris.Wrap(err, "graph: decode response")
	}
	return nil
}

type graphPage struct {
	Value    []graphMessage `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

type graphMessage struct {
	ODataType         string         `json:"@odata.type"`
	ID                string         `json:"id"`
	InternetMessageID string         `json:"internetMessageId"`
	Subject           string         `json:"subject"`
	Body              graphBody      `json:"body"`
	From              graphRecipient `json:"from"`
	Sender            graphRecipient `json:"sender"`
	ReceivedDateTime  string         `json:"receivedDateTime"`
	HasAttachments    bool           `json:"hasAttachments"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphEmailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type graphAttachmentList struct {
	Value []struct {
		Name string `json:"name"`
	} `json:"value"`
}

type graphIterator struct {
	ctx  context.Context
	src  *GraphSource
	page []graphMessage
	idx  int
	next string
	cur  Item
	err  error
}

func (it *graphIterator) fetchPage() bool {
	var page graphPage
	if err := it.src.get(it.ctx, it.next, true, &page); err != nil {
		it.err = err
		return false
	}
	it.page = page.Value
	it.idx = -1
	it.next = page.NextLink
	return true
}

func (it *graphIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.idx+1 >= len(it.page) {
		if it.next == "" {
			return false
		}
		if err := it.ctx.Err(); err != nil {
			it.err = eris.Wrap(err, "graph: iterate")
			return false
		}
		if !it.fetchPage() {
			return false
		}
	}
	it.idx++
	it.cur = &graphItem{ctx: it.ctx, src: it.src, msg: it.page[it.idx]}
	return true
}

func (it *graphIterator) Item() Item   { return it.cur }
func (it *graphIterator) Err() error   { return it.err }
func (it *graphIterator) Close() error { return nil }

// graphItem adapts a Graph message. The listing is requested as text; the
// HTML body and attachment names are fetched on demand.
type graphItem struct {
	ctx context.Context
	src *GraphSource
	msg graphMessage
}

func (g *graphItem) IsMail() bool {
	return g.msg.ODataType == "" || g.msg.ODataType == graphMessageType
}

func (g *graphItem) StableID() (string, error) { return g.msg.InternetMessageID, nil }
func (g *graphItem) Subject() string           { return g.msg.Subject }

func (g *graphItem) Body() string {
	if strings.EqualFold(g.msg.Body.ContentType, "html") {
		return ""
	}
	return g.msg.Body.Content
}

func (g *graphItem) HTMLBody() (string, error) {
	if strings.EqualFold(g.msg.Body.ContentType, "html") {
		return g.msg.Body.Content, nil
	}
	var full struct {
		Body graphBody `json:"body"`
	}
	u := fmt.Sprintf("%s%s/messages/%s?$select=body", g.src.baseURL, g.src.mailbox, url.PathEscape(g.msg.ID))
	if err := g.src.get(g.ctx, u, false, &full); err != nil {
		return "", err
	}
	if !strings.EqualFold(full.Body.ContentType, "html") {
		return "", eris.New("graph: message has no html body")
	}
	return full.Body.Content, nil
}

func (g *graphItem) ReceivedTime() time.Time {
	t, err := time.Parse(time.RFC3339, g.msg.ReceivedDateTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (g *graphItem) Sender() Sender {
	s := Sender{Address: g.msg.From.EmailAddress.Address}
	if g.msg.Sender.EmailAddress != (graphEmailAddress{}) {
		s.Object = &SenderObject{
			EmailAddress: g.msg.Sender.EmailAddress.Address,
			Name:         g.msg.Sender.EmailAddress.Name,
		}
	}
	s.OnBehalfOfName = g.msg.From.EmailAddress.Name
	return s
}

func (g *graphItem) Attachments() ([]string, error) {
	if !g.msg.HasAttachments {
		return []string{}, nil
	}
	var list graphAttachmentList
	u := fmt.Sprintf("%s%s/messages/%s/attachments?$select=name", g.src.baseURL, g.src.mailbox, url.PathEscape(g.msg.ID))
	if err := g.src.get(g.ctx, u, false, &list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list.Value))
	for _, a := range list.Value {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names, nil
}
