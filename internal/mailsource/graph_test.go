package mailsource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/users/ops@forwarder.example/mailFolders/inbox/messages" && r.URL.Query().Get("page") == "":
			assert.Equal(t, "receivedDateTime desc", r.URL.Query().Get("$orderby"))
			assert.Equal(t, "2", r.URL.Query().Get("$top"))
			assert.Contains(t, r.Header.Get("Prefer"), "text")
			fmt.Fprintf(w, `{"value":[
				{"@odata.type":"#microsoft.graph.message","id":"m1","internetMessageId":"<m1@x>","subject":"Quote","body":{"contentType":"text","content":"Berlin to Paris"},"from":{"emailAddress":{"name":"Anna","address":"anna@x"}},"receivedDateTime":"2025-06-03T09:00:00Z","hasAttachments":true},
				{"@odata.type":"#microsoft.graph.eventMessageRequest","id":"m2","internetMessageId":"<m2@x>","subject":"Meeting"}
			],"@odata.nextLink":"%s/users/ops@forwarder.example/mailFolders/inbox/messages?page=2"}`, srv.URL)
		case r.URL.Path == "/users/ops@forwarder.example/mailFolders/inbox/messages" && r.URL.Query().Get("page") == "2":
			fmt.Fprint(w, `{"value":[
				{"id":"m3","internetMessageId":"","subject":"No id","body":{"contentType":"text","content":"x"},"receivedDateTime":"2025-06-01T09:00:00Z"}
			]}`)
		case r.URL.Path == "/users/ops@forwarder.example/messages/m1/attachments":
			fmt.Fprint(w, `{"value":[{"name":"rates.xlsx"},{"name":""}]}`)
		case r.URL.Path == "/users/ops@forwarder.example/messages/m1":
			assert.Empty(t, r.Header.Get("Prefer"))
			fmt.Fprint(w, `{"body":{"contentType":"html","content":"<p>Berlin to Paris</p>"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphSource_Items(t *testing.T) {
	srv := newGraphServer(t)
	src := NewGraphSource(srv.Client(), GraphConfig{User: "ops@forwarder.example", PageSize: 2, BaseURL: srv.URL}, nil)

	it, err := src.Items(context.Background())
	require.NoError(t, err)

	var items []Item
	for it.Next() {
		items = append(items, it.Item())
	}
	require.NoError(t, it.Err())
	require.Len(t, items, 3)

	first := items[0]
	assert.True(t, first.IsMail())
	id, err := first.StableID()
	require.NoError(t, err)
	assert.Equal(t, "<m1@x>", id)
	assert.Equal(t, "Berlin to Paris", first.Body())
	assert.Equal(t, "anna@x", first.Sender().Resolve())
	assert.Equal(t, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC), first.ReceivedTime())

	html, err := first.HTMLBody()
	require.NoError(t, err)
	assert.Equal(t, "<p>Berlin to Paris</p>", html)

	atts, err := first.Attachments()
	require.NoError(t, err)
	assert.Equal(t, []string{"rates.xlsx"}, atts)

	assert.False(t, items[1].IsMail())

	atts, err = items[2].Attachments()
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestGraphSource_NormalizesThroughPipeline(t *testing.T) {
	srv := newGraphServer(t)
	src := NewGraphSource(srv.Client(), GraphConfig{User: "ops@forwarder.example", PageSize: 2, BaseURL: srv.URL}, nil)
	it, err := src.Items(context.Background())
	require.NoError(t, err)

	n := NewNormalizer(nil)
	var ids []string
	for it.Next() {
		if msg, ok := n.Normalize(it.Item()); ok {
			ids = append(ids, msg.StableID)
		}
	}
	assert.Equal(t, []string{"<m1@x>"}, ids)
}

func TestGraphSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"InvalidAuthenticationToken"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	src := NewGraphSource(srv.Client(), GraphConfig{User: "ops@forwarder.example", BaseURL: srv.URL}, nil)
	_, err := src.Items(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
}

func TestNewGraphSource_Defaults(t *testing.T) {
	src := NewGraphSource(http.DefaultClient, GraphConfig{User: "ops@forwarder.example"}, nil)
	assert.Equal(t, graphBaseURL, src.baseURL)
	assert.Equal(t, "/users/ops@forwarder.example", src.mailbox)
	assert.Equal(t, "inbox", src.folder)
	assert.Equal(t, 50, src.pageSize)
}

func TestNewGraphClient_RequiresCredentials(t *testing.T) {
	_, err := NewGraphClient(context.Background(), GraphConfig{TenantID: "t"})
	assert.Error(t, err)

	_, err = NewGraphClient(context.Background(), GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user is required")

	c, err := NewGraphClient(context.Background(), GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s", User: "ops@forwarder.example"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
