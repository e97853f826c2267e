package repository

import (
	"encoding/json"

	"github.com/hitoshi/hiroba/internal/model"
)

// serializeStringArray は文字列配列をストア向けテキストに変換する。
// nilは空配列として保存する。
func serializeStringArray(arr []string) string {
	if arr == nil {
		arr = []string{}
	}
	b, err := json.Marshal(arr)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// serializeMusicEntry は楽曲1件をストア向けテキストに変換する。
// nilは空文字列として保存する。
func serializeMusicEntry(entry *model.MusicEntry) string {
	if entry == nil {
		return ""
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(b)
}
