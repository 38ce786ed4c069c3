package handlers

import "testing"

func TestCleanURL(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "amazon collapses to dp form",
			in:   "https://www.amazon.in/Logitech-MX-Master-3S/dp/B09HM94VDS/ref=sr_1_3?keywords=mouse&qid=1700000000&sr=8-3",
			want: "https://www.amazon.in/dp/B09HM94VDS",
		},
		{
			name: "amazon short link passes through",
			in:   "https://amzn.in/d/4abCdEf",
			want: "https://amzn.in/d/4abCdEf",
		},
		{
			name: "flipkart app link passes through",
			in:   "https://dl.flipkart.com/s/ZyXwVu",
			want: "https://dl.flipkart.com/s/ZyXwVu",
		},
		{
			name: "utm parameters stripped",
			in:   "https://www.croma.com/p/123?utm_source=newsletter&utm_medium=email&utm_campaign=diwali",
			want: "https://www.croma.com/p/123",
		},
		{
			name: "real query parameters survive",
			in:   "https://shop.example.com/product?id=42&variant=blue&fbclid=abc123",
			want: "https://shop.example.com/product?id=42&variant=blue",
		},
		{
			name: "fragment dropped",
			in:   "https://shop.example.com/product?id=42#reviews",
			want: "https://shop.example.com/product?id=42",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  https://www.croma.com/p/123  ",
			want: "https://www.croma.com/p/123",
		},
		{
			name: "unparsable input returned as-is",
			in:   "not a url",
			want: "not a url",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanURL(tc.in); got != tc.want {
				t.Errorf("CleanURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
