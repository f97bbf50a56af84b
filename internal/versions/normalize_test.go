package versions

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"plugin/foo-plugin/rest/api/1.0", "/plugin/foo-plugin/rest/api/1.0"},
		{"/plugin/foo-plugin/rest/api/1.0", "/plugin/foo-plugin/rest/api/1.0"},
		{"//plugin//foo///rest", "/plugin/foo/rest"},
		{"", "/"},
		{"http://ci.example.com", "http://ci.example.com/"},
		{"https://ci.example.com:8443", "https://ci.example.com:8443/"},
		{"http://ci.example.com/", "http://ci.example.com/"},
		{"http://ci//swagger-ui//plugin/x", "http://ci/swagger-ui/plugin/x"},
		{"http://jenkins/swagger-ui/plugin/test-plugin/rest/api/1.0", "http://jenkins/swagger-ui/plugin/test-plugin/rest/api/1.0"},
		{"http://", "http://"},
		{"http://host?q=1", "http://host?q=1"},
		{"localhost:8080/x", "/localhost:8080/x"},
		{"  /a//b  ", "/a/b"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"", "/", "//", "///", "a", "a//b", "http:", "http:/", "http://", "http:///", "http:////x",
		"http://h", "http://h//", "https://h:1//a//", "ftp://x/y", "C:/path", "x://", "?q", "#frag",
		"http://h?x=http://y", "plugin/foo/rest/api/1.0", " http://h ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{"", "plugin/x", "http://h", "https://h//a", "//x//", "a:b//c"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	})
}
