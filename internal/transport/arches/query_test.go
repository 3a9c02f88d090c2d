package arches

import (
	"net/url"
	"testing"
)

type prefixProxy struct{ gotDuration string }

func (p *prefixProxy) URL(raw, cacheDuration string, _ bool) string {
	p.gotDuration = cacheDuration
	return "/proxy/_" + cacheDuration + "/" + raw
}

func TestBuildSearchURL(t *testing.T) {
	got, err := BuildSearchURL(Query{
		BaseURL: "https://arches.example.org/?old=1#frag",
		GraphID: "9b591814-c0f2-11e8-9c8c-0242ac120004",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://arches.example.org/search/resources?format=tilecsv&precision=6&resource-type-filter=" +
		url.QueryEscape(`[{"graphid":"9b591814-c0f2-11e8-9c8c-0242ac120004","inverted":false}]`) + "&tiles=true"
	if got != want {
		t.Errorf("BuildSearchURL() =\n%s\nwant\n%s", got, want)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("result does not parse: %v", err)
	}
	if u.Query().Get("old") != "" {
		t.Error("base query string must be stripped")
	}
	if f := u.Query().Get("resource-type-filter"); f != `[{"graphid":"9b591814-c0f2-11e8-9c8c-0242ac120004","inverted":false}]` {
		t.Errorf("resource-type-filter = %s", f)
	}
}

func TestBuildSearchURL_PathWithoutSlash(t *testing.T) {
	got, err := BuildSearchURL(Query{BaseURL: "http://x/arches", GraphID: "g"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, _ := url.Parse(got)
	if u.Path != "/arches/search/resources" {
		t.Errorf("path = %s", u.Path)
	}
}

func TestBuildSearchURL_Proxied(t *testing.T) {
	p := &prefixProxy{}
	got, err := BuildSearchURL(Query{BaseURL: "http://x/", GraphID: "g", CacheDuration: "1d"}, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.gotDuration != "1d" {
		t.Errorf("cache duration = %q", p.gotDuration)
	}
	if want := "/proxy/_1d/http://x/search/resources?"; len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("BuildSearchURL() = %s", got)
	}
}

func TestBuildSearchURL_InvalidBase(t *testing.T) {
	if _, err := BuildSearchURL(Query{BaseURL: "http://[::1"}, nil); err == nil {
		t.Fatal("expected error")
	}
}
