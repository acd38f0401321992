package notification

import (
	"strings"
)

type ReminderListResponse struct {
	Reminders  []Reminder `json:"reminders"`
	TotalCount int        `json:"total_count"`
}

var platforms = map[string]bool{"android": true, "ios": true, "web": true}

// ParseDeviceTokens reads token[:platform] entries. FCM tokens may contain
// colons themselves, so only a known platform suffix is split off. Platform
// defaults to android.
func ParseDeviceTokens(raw []string) []DeviceToken {
	tokens := make([]DeviceToken, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, platform := entry, "android"
		if i := strings.LastIndex(entry, ":"); i > 0 && platforms[entry[i+1:]] {
			token, platform = entry[:i], entry[i+1:]
		}
		tokens = append(tokens, DeviceToken{Token: token, Platform: platform})
	}
	return tokens
}
