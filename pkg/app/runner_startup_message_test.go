package app

import "testing"

func TestFormatStartupMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		appName    string
		appVersion string
		want       string
	}{
		{
			name:       "no version",
			appName:    "nicknamebot",
			appVersion: "",
			want:       "🚀 Starting nicknamebot...",
		},
		{
			name:       "dev build omits version",
			appName:    "nicknamebot",
			appVersion: "dev",
			want:       "🚀 Starting nicknamebot...",
		},
		{
			name:       "release version",
			appName:    "nicknamebot",
			appVersion: "v1.4.0",
			want:       "🚀 Starting nicknamebot v1.4.0...",
		},
		{
			name:       "trims spaces",
			appName:    " nicknamebot ",
			appVersion: " v1.4.0 ",
			want:       "🚀 Starting nicknamebot v1.4.0...",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := formatStartupMessage(tc.appName, tc.appVersion)
			if got != tc.want {
				t.Fatalf("formatStartupMessage() mismatch\nwant: %q\ngot:  %q", tc.want, got)
			}
		})
	}
}
