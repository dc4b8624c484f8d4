package utils

import "strings"

func BuildUserCacheKey(id string) string {
	return "users:v1:id=" + strings.ToLower(strings.TrimSpace(id))
}
