package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// newStubSource points a Source at a fake Gmail API.
func newStubSource(t *testing.T, handler http.Handler) *Source {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	source, err := NewSource(context.Background(),
		Config{Query: "facture"},
		zap.NewNop(),
		option.WithEndpoint(ts.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)
	return source
}

func TestListCandidates_FollowsPageTokens(t *testing.T) {
	source := newStubSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"messages":[{"id":"m1"},{"id":"m2"}],"nextPageToken":"page-2"}`)
		case "page-2":
			fmt.Fprint(w, `{"messages":[{"id":"m3"}]}`)
		default:
			http.Error(w, "unexpected page token", http.StatusBadRequest)
		}
	}))

	refs, err := source.ListCandidates(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
}

func TestListCandidates_EmptyMailbox(t *testing.T) {
	source := newStubSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))

	refs, err := source.ListCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestFindPDFPart(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "text/plain",
				Body:     &gmailapi.MessagePartBody{},
			},
			{
				MimeType: "application/pdf",
				Filename: "facture.pdf",
				Body:     &gmailapi.MessagePartBody{AttachmentId: "att-1"},
			},
		},
	}

	part := findPDFPart(payload)
	require.NotNil(t, part)
	assert.Equal(t, "att-1", part.Body.AttachmentId)
}

func TestFindPDFPart_MatchesByFilename(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "application/octet-stream",
				Filename: "Facture_01234.PDF",
				Body:     &gmailapi.MessagePartBody{AttachmentId: "att-2"},
			},
		},
	}

	part := findPDFPart(payload)
	require.NotNil(t, part)
	assert.Equal(t, "att-2", part.Body.AttachmentId)
}

func TestFindPDFPart_NestedParts(t *testing.T) {
	payload := &gmailapi.MessagePart{
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailapi.MessagePart{
					{
						MimeType: "application/pdf",
						Filename: "facture.pdf",
						Body:     &gmailapi.MessagePartBody{AttachmentId: "att-3"},
					},
				},
			},
		},
	}

	part := findPDFPart(payload)
	require.NotNil(t, part)
	assert.Equal(t, "att-3", part.Body.AttachmentId)
}

func TestFindPDFPart_NoAttachment(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailapi.MessagePartBody{},
	}

	assert.Nil(t, findPDFPart(payload))
	assert.Nil(t, findPDFPart(nil))
}

func TestDecodeBody(t *testing.T) {
	raw := []byte("%PDF-1.4 content")

	unpadded, err := decodeBody(base64.RawURLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, unpadded)

	padded, err := decodeBody(base64.URLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, padded)
}

func TestDecodeBody_Invalid(t *testing.T) {
	_, err := decodeBody("!!!not base64!!!")
	assert.Error(t, err)
}
