package types

import "testing"

func TestResolveImageRef(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want ImageSource
	}{
		{"numeric string", "123", ImageSource{Kind: ImageByID, ID: 123}},
		{"url string", "https://img.example.com/a.jpg", ImageSource{Kind: ImageByURL, URL: "https://img.example.com/a.jpg"}},
		{"json number", float64(77), ImageSource{Kind: ImageByID, ID: 77}},
		{"object with id", map[string]any{"id": float64(9)}, ImageSource{Kind: ImageByObject, ID: 9}},
		{"object with url", map[string]any{"url": "https://img.example.com/b.jpg"}, ImageSource{Kind: ImageByObject, URL: "https://img.example.com/b.jpg"}},
	}
	for _, tc := range cases {
		got, err := ResolveImageRef(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want=%+v got=%+v", tc.name, tc.want, got)
		}
	}
}

func TestResolveImageRefRejects(t *testing.T) {
	bad := []any{
		"",
		"not-a-url",
		map[string]any{"caption": "no ref"},
		true,
		nil,
	}
	for _, in := range bad {
		if _, err := ResolveImageRef(in); err == nil {
			t.Fatalf("expected error for %#v", in)
		}
	}
}

func TestExtractPostID(t *testing.T) {
	id, err := ExtractPostID("https://resources.example.com/wp-admin/post.php?post=42&action=edit")
	if err != nil {
		t.Fatalf("ExtractPostID: %v", err)
	}
	if id != 42 {
		t.Fatalf("id: want=42 got=%d", id)
	}
}

func TestExtractPostIDFailures(t *testing.T) {
	bad := []string{
		"",
		"https://resources.example.com/wp-admin/post.php",
		"https://resources.example.com/wp-admin/post.php?post=abc",
		"https://resources.example.com/wp-admin/post.php?post=0",
		"https://resources.example.com/wp-admin/post.php?post=-3",
	}
	for _, u := range bad {
		if _, err := ExtractPostID(u); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}
