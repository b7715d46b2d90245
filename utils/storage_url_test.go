package utils

import "testing"

func TestBuildObjectAccessURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://cdn.example.com/files")
	if got := BuildObjectAccessURL("profiles/a.png"); got != "https://cdn.example.com/files/profiles/a.png" {
		t.Fatalf("unexpected URL %q", got)
	}

	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://api.example.com/uploads/object?key=")
	if got := BuildObjectAccessURL("profiles/a.png"); got != "https://api.example.com/uploads/object?key=profiles%2Fa.png" {
		t.Fatalf("unexpected query URL %q", got)
	}
}

func TestExtractObjectKeyFromURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "")
	t.Setenv("GCS_BUCKET", "")

	cases := []struct {
		in       string
		expected string
	}{
		{"profiles/photo.png", "profiles/photo.png"},
		{"profiles/../secrets.txt", ""},
		{"gs://my-bucket/profiles/photo.png", "profiles/photo.png"},
		{"https://storage.googleapis.com/my-bucket/profiles/photo.png", "profiles/photo.png"},
		{"https://my-bucket.storage.googleapis.com/profiles/photo.png", "profiles/photo.png"},
		{"https://api.example.com/uploads/object?key=profiles%2Fphoto.png", "profiles/photo.png"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractObjectKeyFromURL(tc.in); got != tc.expected {
			t.Fatalf("ExtractObjectKeyFromURL(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}
