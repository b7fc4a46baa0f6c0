package library

import "testing"

func TestQuoteLiteral(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/data/library.db", "'/data/library.db'"},
		{"O'Brien's Library.db", "'O''Brien''s Library.db'"},
		{"", "''"},
	}
	for _, c := range cases {
		if got := quoteLiteral(c.in); got != c.want {
			t.Errorf("quoteLiteral(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
