package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/medconsensus/internal/httpclient"
)

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("missing api key header")
		}
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Q != "lung cancer" || req.GL != "us" || req.HL != "en" || req.Num != 4 {
			t.Errorf("unexpected payload %+v", req)
		}
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"A","link":"https://a.org","snippet":"sa"},
			{"title":"B","link":"https://b.org","snippet":"sb"}]}`))
	}))
	defer srv.Close()

	s := Search{APIKey: "key", Endpoint: srv.URL, HTTP: httpclient.New(time.Second, 0, time.Millisecond)}
	got, err := s.Discover(context.Background(), "lung cancer", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Link != "https://b.org" || got[0].Snippet != "sa" {
		t.Fatalf("unexpected results %+v", got)
	}
}
