package main

import "testing"

func TestCaptionCountText(t *testing.T) {
	cases := []struct {
		caption string
		want    string
	}{
		{"", ""},
		{"a", "1 char"},
		{"hello", "5 chars"},
		{"café", "4 chars"},
		{"👩‍🚀 on the moon", "13 chars"},
	}
	for _, tc := range cases {
		if got := captionCountText(tc.caption); got != tc.want {
			t.Fatalf("captionCountText(%q) = %q, want %q", tc.caption, got, tc.want)
		}
	}
}

func TestZoomLabelText(t *testing.T) {
	cases := []struct {
		zoom float64
		want string
	}{
		{0.35, "Fit"},
		{1.0, "Fit"},
		{1.5, "1.50x"},
		{4.0, "4.00x"},
	}
	for _, tc := range cases {
		if got := zoomLabelText(tc.zoom); got != tc.want {
			t.Fatalf("zoomLabelText(%v) = %q, want %q", tc.zoom, got, tc.want)
		}
	}
}

func TestIsPathWithinDir(t *testing.T) {
	cases := []struct {
		name string
		path string
		dir  string
		want bool
	}{
		{name: "direct child", path: "/photos/cat.jpg", dir: "/photos", want: true},
		{name: "nested child", path: "/photos/trip/cat.jpg", dir: "/photos", want: true},
		{name: "same path", path: "/photos", dir: "/photos", want: true},
		{name: "sibling", path: "/other/cat.jpg", dir: "/photos", want: false},
		{name: "parent escape", path: "/photos/../secrets/key.txt", dir: "/photos", want: false},
		{name: "prefix but not child", path: "/photos-backup/cat.jpg", dir: "/photos", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isPathWithinDir(tc.path, tc.dir); got != tc.want {
				t.Fatalf("isPathWithinDir(%q, %q) = %v, want %v", tc.path, tc.dir, got, tc.want)
			}
		})
	}
}
