package model

import (
	"encoding/json"
	"log/slog"
)

// ParseStringArray はシリアライズ済みテキストを文字列配列にパースする。
// パース失敗や配列以外のJSONの場合は空配列を返し、エラーにはしない。
func ParseStringArray(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		slog.Warn("failed to parse stored JSON array",
			slog.String("raw", raw),
		)
		return []string{}
	}
	return arr
}

// ParseInt64Array はシリアライズ済みテキストを数値配列にパースする。
// パース失敗時は空配列を返す。
func ParseInt64Array(raw string) []int64 {
	if raw == "" {
		return []int64{}
	}
	var arr []int64
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		slog.Warn("failed to parse stored JSON array",
			slog.String("raw", raw),
		)
		return []int64{}
	}
	return arr
}

// ParseMusicList はシリアライズ済みテキストを楽曲リストにパースする。
// パース失敗時は空リストを返す。
func ParseMusicList(raw string) []MusicEntry {
	if raw == "" {
		return []MusicEntry{}
	}
	var list []MusicEntry
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		slog.Warn("failed to parse stored music list",
			slog.String("raw", raw),
		)
		return []MusicEntry{}
	}
	return list
}

// ParseMusicEntry はシリアライズ済みテキストを楽曲1件にパースする。
// パース失敗時はnilを返す。
func ParseMusicEntry(raw string) *MusicEntry {
	if raw == "" {
		return nil
	}
	var entry MusicEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		slog.Warn("failed to parse stored music entry",
			slog.String("raw", raw),
		)
		return nil
	}
	return &entry
}
