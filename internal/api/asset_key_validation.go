package api

import (
	"strings"
	"unicode/utf8"

	"cvforge/internal/storage"
)

// isValidUserPhotoKey 校验客户端提交的头像 key 属于当前用户且没有路径穿越。
func isValidUserPhotoKey(userID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if !strings.HasPrefix(key, storage.UserPhotoPrefix(userID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 200 {
		return false
	}
	_, ok := photoExtensions[strings.ToLower(extOf(key))]
	return ok
}

func extOf(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i:]
	}
	return ""
}
