package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendit/internal/database"
	"lendit/internal/models"
	"lendit/internal/service"
)

var testNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewMemoryDB(&logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	bookings := service.NewBookingService(db, db, db, nil, &logger).WithClock(clock)
	items := service.NewItemService(db, db, db, db, nil, &logger).WithClock(clock)
	users := service.NewUserService(db, &logger)
	requests := service.NewRequestService(db, db, db, &logger)

	server := NewServer(bookings, items, users, requests, nil, &logger)
	ts := httptest.NewServer(server.Handler(0, 0))
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, t: t}
}

// do sends a request with an optional JSON body and caller header and decodes
// the response into out when it is non-nil.
func (ts *testServer) do(method, path string, callerID int64, body, out any) int {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(ts.t, err)
	if callerID != 0 {
		req.Header.Set(userIDHeader, strconv.FormatInt(callerID, 10))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) addUser(name, email string) *models.User {
	ts.t.Helper()
	var user models.User
	code := ts.do("POST", "/users", 0, map[string]string{"name": name, "email": email}, &user)
	require.Equal(ts.t, http.StatusOK, code)
	return &user
}

func (ts *testServer) addItem(ownerID int64, name string, available bool) *models.Item {
	ts.t.Helper()
	var item models.Item
	code := ts.do("POST", "/items", ownerID, map[string]any{
		"name":        name,
		"description": name + " description",
		"available":   available,
	}, &item)
	require.Equal(ts.t, http.StatusOK, code)
	return &item
}

func (ts *testServer) addBooking(bookerID, itemID int64, start, end time.Time) *models.Booking {
	ts.t.Helper()
	var booking models.Booking
	code := ts.do("POST", "/bookings", bookerID, map[string]any{
		"item_id": itemID,
		"start":   start,
		"end":     end,
	}, &booking)
	require.Equal(ts.t, http.StatusOK, code)
	return &booking
}

func TestUserEndpoints(t *testing.T) {
	ts := newTestServer(t)

	user := ts.addUser("alice", "alice@example.com")
	assert.NotZero(t, user.ID)

	t.Run("duplicate email is 409", func(t *testing.T) {
		code := ts.do("POST", "/users", 0, map[string]string{"name": "imposter", "email": "alice@example.com"}, nil)
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("invalid email is 400", func(t *testing.T) {
		code := ts.do("POST", "/users", 0, map[string]string{"name": "bob", "email": "not-an-email"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("get", func(t *testing.T) {
		var got models.User
		code := ts.do("GET", fmt.Sprintf("/users/%d", user.ID), 0, nil, &got)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "alice", got.Name)

		code = ts.do("GET", "/users/9999", 0, nil, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("patch", func(t *testing.T) {
		var got models.User
		code := ts.do("PATCH", fmt.Sprintf("/users/%d", user.ID), 0, map[string]string{"name": "alice2"}, &got)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "alice2", got.Name)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("delete", func(t *testing.T) {
		extra := ts.addUser("extra", "extra@example.com")
		code := ts.do("DELETE", fmt.Sprintf("/users/%d", extra.ID), 0, nil, nil)
		assert.Equal(t, http.StatusOK, code)
		code = ts.do("DELETE", fmt.Sprintf("/users/%d", extra.ID), 0, nil, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestBookingEndpoints(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.addUser("owner", "owner@example.com")
	booker := ts.addUser("booker", "booker@example.com")
	item := ts.addItem(owner.ID, "drill", true)

	start := testNow.Add(time.Hour)
	end := testNow.Add(2 * time.Hour)

	t.Run("missing identity header is 400", func(t *testing.T) {
		code := ts.do("POST", "/bookings", 0, map[string]any{"item_id": item.ID, "start": start, "end": end}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("create and decide", func(t *testing.T) {
		booking := ts.addBooking(booker.ID, item.ID, start, end)
		assert.Equal(t, models.StatusWaiting, booking.Status)

		var decided models.Booking
		code := ts.do("PATCH", fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil, &decided)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, models.StatusApproved, decided.Status)

		// Terminal bookings cannot be decided again.
		code = ts.do("PATCH", fmt.Sprintf("/bookings/%d?approved=false", booking.ID), owner.ID, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("approved must be boolean", func(t *testing.T) {
		booking := ts.addBooking(booker.ID, item.ID, start, end)
		code := ts.do("PATCH", fmt.Sprintf("/bookings/%d?approved=maybe", booking.ID), owner.ID, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("non-owner decision is 404", func(t *testing.T) {
		booking := ts.addBooking(booker.ID, item.ID, start, end)
		code := ts.do("PATCH", fmt.Sprintf("/bookings/%d?approved=true", booking.ID), booker.ID, nil, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("booking own item is 404", func(t *testing.T) {
		code := ts.do("POST", "/bookings", owner.ID, map[string]any{"item_id": item.ID, "start": start, "end": end}, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("bad period is 400", func(t *testing.T) {
		code := ts.do("POST", "/bookings", booker.ID, map[string]any{"item_id": item.ID, "start": end, "end": start}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("visibility", func(t *testing.T) {
		stranger := ts.addUser("stranger", "stranger@example.com")
		booking := ts.addBooking(booker.ID, item.ID, start, end)

		code := ts.do("GET", fmt.Sprintf("/bookings/%d", booking.ID), booker.ID, nil, nil)
		assert.Equal(t, http.StatusOK, code)
		code = ts.do("GET", fmt.Sprintf("/bookings/%d", booking.ID), owner.ID, nil, nil)
		assert.Equal(t, http.StatusOK, code)
		code = ts.do("GET", fmt.Sprintf("/bookings/%d", booking.ID), stranger.ID, nil, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("listings default to ALL", func(t *testing.T) {
		var own []*models.Booking
		code := ts.do("GET", "/bookings", booker.ID, nil, &own)
		assert.Equal(t, http.StatusOK, code)
		assert.NotEmpty(t, own)

		var byOwner []*models.Booking
		code = ts.do("GET", "/bookings/owner", owner.ID, nil, &byOwner)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, len(own), len(byOwner))
	})

	t.Run("empty listing is a JSON array", func(t *testing.T) {
		lonely := ts.addUser("lonely", "lonely@example.com")
		var got []*models.Booking
		code := ts.do("GET", "/bookings", lonely.ID, nil, &got)
		assert.Equal(t, http.StatusOK, code)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("unknown state is 400", func(t *testing.T) {
		code := ts.do("GET", "/bookings?state=SOMEDAY", booker.ID, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("bad pagination is 400", func(t *testing.T) {
		code := ts.do("GET", "/bookings?from=-1", booker.ID, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		code = ts.do("GET", "/bookings?size=0", booker.ID, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestItemEndpoints(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.addUser("owner", "owner@example.com")
	booker := ts.addUser("booker", "booker@example.com")
	item := ts.addItem(owner.ID, "drill", true)

	t.Run("update by non-owner is 403", func(t *testing.T) {
		code := ts.do("PATCH", fmt.Sprintf("/items/%d", item.ID), booker.ID, map[string]string{"name": "mine"}, nil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("partial update", func(t *testing.T) {
		var got models.Item
		code := ts.do("PATCH", fmt.Sprintf("/items/%d", item.ID), owner.ID, map[string]string{"description": "now cordless"}, &got)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "drill", got.Name)
		assert.Equal(t, "now cordless", got.Description)
	})

	t.Run("search", func(t *testing.T) {
		var found []*models.Item
		code := ts.do("GET", "/items/search?text=drill", booker.ID, nil, &found)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, found, 1)
		assert.Equal(t, item.ID, found[0].ID)

		code = ts.do("GET", "/items/search?text=", booker.ID, nil, &found)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, found)
	})

	t.Run("comment requires finished booking", func(t *testing.T) {
		code := ts.do("POST", fmt.Sprintf("/items/%d/comment", item.ID), booker.ID, map[string]string{"text": "great"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)

		ts.addBooking(booker.ID, item.ID, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))
		var comment models.Comment
		code = ts.do("POST", fmt.Sprintf("/items/%d/comment", item.ID), booker.ID, map[string]string{"text": "great"}, &comment)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "booker", comment.AuthorName)
	})

	t.Run("owner listing has projection", func(t *testing.T) {
		booking := ts.addBooking(booker.ID, item.ID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
		code := ts.do("PATCH", fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil, nil)
		require.Equal(t, http.StatusOK, code)

		var views []*service.ItemView
		code = ts.do("GET", "/items", owner.ID, nil, &views)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, views, 1)
		require.NotNil(t, views[0].NextBooking)
		assert.Equal(t, booking.ID, views[0].NextBooking.ID)
	})
}

func TestRequestEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.addUser("alice", "alice@example.com")
	bob := ts.addUser("bob", "bob@example.com")

	var request models.ItemRequest
	code := ts.do("POST", "/requests", alice.ID, map[string]string{"description": "need a drill"}, &request)
	require.Equal(t, http.StatusOK, code)

	t.Run("own requests", func(t *testing.T) {
		var views []*service.RequestView
		code := ts.do("GET", "/requests", alice.ID, nil, &views)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, views, 1)
		assert.Equal(t, request.ID, views[0].ID)
	})

	t.Run("others see it under /requests/all", func(t *testing.T) {
		var views []*service.RequestView
		code := ts.do("GET", "/requests/all", bob.ID, nil, &views)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, views, 1)

		code = ts.do("GET", "/requests/all", alice.ID, nil, &views)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, views)
	})

	t.Run("get with answering item", func(t *testing.T) {
		var item models.Item
		code := ts.do("POST", "/items", bob.ID, map[string]any{
			"name":        "drill",
			"description": "answers the request",
			"available":   true,
			"request_id":  request.ID,
		}, &item)
		require.Equal(t, http.StatusOK, code)

		var view service.RequestView
		code = ts.do("GET", fmt.Sprintf("/requests/%d", request.ID), alice.ID, nil, &view)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, view.Items, 1)
		assert.Equal(t, item.ID, view.Items[0].ID)
	})
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewMemoryDB(&logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := service.NewUserService(db, &logger)
	server := NewServer(nil, nil, users, nil, nil, &logger)
	ts := httptest.NewServer(server.Handler(1, 2))
	t.Cleanup(ts.Close)

	limited := false
	for i := 0; i < 10; i++ {
		resp, err := http.Get(ts.URL + "/users")
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}
