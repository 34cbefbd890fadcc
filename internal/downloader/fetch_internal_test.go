package downloader

import "testing"

func TestDownloadPercentKnownLength(t *testing.T) {
	cases := []struct {
		received, total int64
		want            float64
	}{
		{0, 1000, 0},
		{500, 1000, 50},
		{1000, 1000, 99}, // capped until the payload is committed
		{2000, 1000, 99}, // over-reporting servers stay capped too
	}
	for _, tc := range cases {
		if got := downloadPercent(tc.received, tc.total); got != tc.want {
			t.Errorf("downloadPercent(%d, %d) = %v, want %v", tc.received, tc.total, got, tc.want)
		}
	}
}

func TestDownloadPercentUnknownLengthMonotonic(t *testing.T) {
	var last float64
	for received := int64(0); received < 64<<20; received += 1 << 20 {
		pct := downloadPercent(received, -1)
		if pct < last {
			t.Fatalf("progress went backwards at %d bytes: %v < %v", received, pct, last)
		}
		if pct >= 100 {
			t.Fatalf("progress reached %v without a known total", pct)
		}
		last = pct
	}
}

func TestChapterIdentityFallsBackToIndex(t *testing.T) {
	withID := ChapterInfo{ID: "orig-9", Index: 3}
	if got := withID.identity(); got != "orig-9" {
		t.Errorf("identity() = %q, want orig-9", got)
	}
	withoutID := ChapterInfo{Index: 3}
	if got := withoutID.identity(); got != "3" {
		t.Errorf("identity() = %q, want 3", got)
	}
}
