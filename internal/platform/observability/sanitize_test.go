package observability

import "testing"

func TestSanitizeRouteStripsControlCharacters(t *testing.T) {
	got := SanitizeRoute("/api/v1/products\n{id}\x00")
	if got != "/api/v1/products{id}" {
		t.Fatalf("unexpected route %q", got)
	}
}

func TestSanitizeRouteDefaultsToRoot(t *testing.T) {
	if got := SanitizeRoute(""); got != "/" {
		t.Fatalf("unexpected route %q", got)
	}
}

func TestSanitizeRouteBoundsLength(t *testing.T) {
	long := "/"
	for len(long) <= maxRouteLength {
		long += "segment/"
	}
	if got := SanitizeRoute(long); len(got) != maxRouteLength {
		t.Fatalf("route length = %d, want %d", len(got), maxRouteLength)
	}
}

func TestSanitizeMethodUppercases(t *testing.T) {
	if got := SanitizeMethod("pat\x1bch"); got != "PATCH" {
		t.Fatalf("unexpected method %q", got)
	}
}
