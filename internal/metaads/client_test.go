package metaads

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/service/collection"
)

func testClient(srv *httptest.Server, pageSize int) *Client {
	return newClient(config.MetaConfig{
		AccessToken: "tok",
		BaseURL:     srv.URL + "/",
		APIVersion:  "v18.0",
		PageSize:    pageSize,
	}, srv.Client())
}

func TestSearchAds_FollowsPaging(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("cursor") == "2" {
			fmt.Fprint(w, `{"data":[{"id":"3"},{"id":"4"}]}`)
			return
		}
		assert.Equal(t, "/v18.0/ads_archive", r.URL.Path)
		assert.Equal(t, "tok", q.Get("access_token"))
		assert.Equal(t, "hospital", q.Get("search_terms"))
		assert.Equal(t, `["KR"]`, q.Get("ad_reached_countries"))
		assert.Equal(t, "2", q.Get("limit"))
		fmt.Fprintf(w, `{"data":[{"id":"1"},{"id":""},{"id":"2"}],"paging":{"next":"%s/next?cursor=2"}}`, srv.URL)
	}))
	defer srv.Close()

	ads, err := testClient(srv, 2).SearchAds(context.Background(), collection.SearchRequest{
		Terms: []string{"hospital"}, Country: "KR", Limit: 3,
	})
	require.NoError(t, err)
	require.Len(t, ads, 3)
	assert.Equal(t, "1", ads[0].AdID)
	assert.Equal(t, "3", ads[2].AdID)
}

func TestSearchAds_SkipsFailingTerm(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("search_terms") == "bad" {
			http.Error(w, `{"error":{"message":"invalid"}}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"ok-1"}]}`)
	}))
	defer srv.Close()

	ads, err := testClient(srv, 10).SearchAds(context.Background(), collection.SearchRequest{
		Terms: []string{"bad", "good"}, Country: "KR", Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "ok-1", ads[0].AdID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSearchAds_StopsAtLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"data":[{"id":"a"},{"id":"b"}]}`)
	}))
	defer srv.Close()

	ads, err := testClient(srv, 10).SearchAds(context.Background(), collection.SearchRequest{
		Terms: []string{"one", "two"}, Country: "KR", Limit: 2,
	})
	require.NoError(t, err)
	assert.Len(t, ads, 2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSearchAds_RequiresToken(t *testing.T) {
	c := newClient(config.MetaConfig{BaseURL: "http://unused"}, http.DefaultClient)
	_, err := c.SearchAds(context.Background(), collection.SearchRequest{Terms: []string{"x"}, Limit: 1})
	assert.Error(t, err)
}

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()
	c := testClient(srv, 10)

	data, err := c.FetchSnapshot(context.Background(), srv.URL+"/img")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	_, err = c.FetchSnapshot(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = c.FetchSnapshot(context.Background(), "")
	assert.Error(t, err)
}

type countingLimiter struct{ calls int }

func (l *countingLimiter) Wait(context.Context) error {
	l.calls++
	return nil
}

func TestSearchAds_WaitsOnLimiterPerPage(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/p2" {
			fmt.Fprint(w, `{"data":[{"id":"b"}]}`)
			return
		}
		fmt.Fprintf(w, `{"data":[{"id":"a"}],"paging":{"next":"%s/p2"}}`, srv.URL)
	}))
	defer srv.Close()

	c := testClient(srv, 10)
	lim := &countingLimiter{}
	c.SetLimiter(lim)
	ads, err := c.SearchAds(context.Background(), collection.SearchRequest{Terms: []string{"x"}, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, ads, 2)
	assert.Equal(t, 2, lim.calls)
}
