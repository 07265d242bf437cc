package domain

import (
	"errors"
	"testing"
	"time"
)

func TestBatch_AppendDoesNotMutateReceiver(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b0 := NewBatch("id-1", now)
	b1 := b0.Append([]MatchRecord{NewUnmatchedVideo("/a/v.mkv")}, now.Add(time.Second))
	b2 := b1.Append([]MatchRecord{NewUnmatchedSubtitle("/a/s.srt")}, now.Add(2*time.Second))

	if len(b0.Records) != 0 || len(b1.Records) != 1 || len(b2.Records) != 2 {
		t.Fatalf("Append 不应修改旧批次：%d %d %d", len(b0.Records), len(b1.Records), len(b2.Records))
	}
	if b2.ID != "id-1" || !b2.CreatedAt.Equal(now) {
		t.Fatalf("ID/CreatedAt 应保持不变：%+v", b2)
	}
	if !b2.Contains("/a/./s.srt") {
		t.Fatalf("Contains 应按 Clean 路径比较")
	}

	c := b2.Cleared(now.Add(3 * time.Second))
	if len(c.Records) != 0 || c.ID != "id-1" {
		t.Fatalf("Cleared 结果不正确：%+v", c)
	}
	if len(b2.Records) != 2 {
		t.Fatalf("Cleared 不应修改旧批次")
	}
}

func TestBatch_Check(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		records []MatchRecord
		code    string
	}{
		{"empty", nil, ErrCodeBatchEmpty},
		{"no videos", []MatchRecord{NewUnmatchedSubtitle("/a/s.srt")}, ErrCodeNoVideos},
		{"no subtitles", []MatchRecord{NewUnmatchedVideo("/a/v.mkv")}, ErrCodeNoSubtitles},
		{"mismatch", []MatchRecord{
			NewMatched("/a/v.mkv", "/a/s.srt", 0.9),
			NewUnmatchedVideo("/a/w.mkv"),
		}, ErrCodeCountMismatch},
		{"ok", []MatchRecord{
			NewMatched("/a/v.mkv", "/a/s.srt", 0.9),
			NewUnmatchedVideo("/a/w.mkv"),
			NewUnmatchedSubtitle("/a/t.srt"),
		}, ""},
	}

	for _, tc := range cases {
		b := NewBatch("x", now).Append(tc.records, now)
		err := b.Check()
		if tc.code == "" {
			if err != nil {
				t.Fatalf("%s：不期望错误：%v", tc.name, err)
			}
			continue
		}
		var be *BatchError
		if !errors.As(err, &be) || be.Code != tc.code {
			t.Fatalf("%s：期望 %q，实际 %v", tc.name, tc.code, err)
		}
	}
}
