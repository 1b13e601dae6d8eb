package geonames

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/searchJSON" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("name") != "London" || q.Get("username") != "demo" || q.Get("maxRows") != "1" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"geonames":[
			{"geonameId":2643743,"name":"London","lat":"51.50853","lng":"-0.12574"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL, Username: "demo", Logger: zap.NewNop()})
	got, err := c.Search(context.Background(), "London", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got = %+v", got)
	}
	p := got[0]
	if p.GeoNameID != 2643743 {
		t.Errorf("id = %d", p.GeoNameID)
	}
	if p.Latitude() != 51.50853 || p.Longitude() != -0.12574 {
		t.Errorf("coords = %v, %v", p.Latitude(), p.Longitude())
	}
}

func TestSearch_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"geonames":[]}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL, Username: "demo", Logger: zap.NewNop()})
	got, err := c.Search(context.Background(), "Atlantis", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got = %+v", got)
	}
}

func TestPlace_MalformedCoordinates(t *testing.T) {
	p := Place{Lat: "not-a-number", Lng: ""}
	if p.Latitude() != 0 || p.Longitude() != 0 {
		t.Errorf("coords = %v, %v", p.Latitude(), p.Longitude())
	}
}

func TestURIFromID(t *testing.T) {
	if got := URIFromID(2643743); got != "http://sws.geonames.org/2643743/" {
		t.Errorf("uri = %q", got)
	}
}
