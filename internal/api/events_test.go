package api_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/web/sse"
)

// readUntil scans SSE lines until one contains want or the stream ends
func readUntil(t *testing.T, reader *bufio.Reader, want string) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err, "stream ended before %q", want)
		if strings.Contains(line, want) {
			return line
		}
	}
}

func TestEventsStreamHeaders(t *testing.T) {
	ts := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?topic=users", nil).WithContext(ctx)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Body.String(), "retry: 3000")
	assert.Contains(t, rr.Body.String(), `data: {"status":"connected","topic":"users"}`)
	assert.NotNil(t, ts.app.HubManager.GetHub(sse.TopicUsers))
}

func TestEventsStreamListingUpdates(t *testing.T) {
	ts := newTestServer(t, nil)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?topic=listings&client=browser-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	reader := bufio.NewReader(resp.Body)
	readUntil(t, reader, "event: connected")

	// Wait for the hub to see the client before changing the store
	hub := ts.app.HubManager.GetHub(sse.TopicListings)
	require.NotNil(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	_, err = ts.app.Identity.Signup(ctx, "seller", "pw")
	require.NoError(t, err)
	_, err = ts.app.Listings.CreateListing(ctx, model.ListingForm{
		Title:            "Zelda cartridge",
		ShortDescription: "Boxed",
		ListingType:      model.ListingTypeSell,
		Category:         model.CategoryVideoGame,
		Price:            "$30",
		Condition:        model.ConditionGood,
		Location:         "Lisbon",
		ContactInfo:      "dm",
	}, nil)
	require.NoError(t, err)

	readUntil(t, reader, "event: listings-update")
	line := readUntil(t, reader, "Zelda cartridge")
	assert.Contains(t, line, `hx-swap-oob="true"`)
}
