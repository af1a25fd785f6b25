package domain

import "time"

type AccountID string

type Account struct {
	ID            AccountID `json:"id"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatar_url"`
	BaseAvatarURL string    `json:"base_avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// ResolveAvatar resolves an avatar file name against the account's avatar host.
// An empty file name yields fallback.
func (a Account) ResolveAvatar(file string, fallback string) string {
	if file == "" {
		return fallback
	}

	return a.BaseAvatarURL + string(a.ID) + "/" + file
}
