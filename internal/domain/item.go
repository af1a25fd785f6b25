package domain

type ItemID string

// Item is either a BaseItem or a template-specific variant embedding one.
// Vault and Template are always resolved details, never bare ids.
type Item interface {
	Base() BaseItem
}

type BaseItem struct {
	ID       ItemID       `json:"id"`
	Vault    VaultDetails `json:"vault"`
	Template Template     `json:"template"`
	Title    string       `json:"title"`
}

func (i BaseItem) Base() BaseItem {
	return i
}

type LoginItem struct {
	BaseItem
	Username string  `json:"username"`
	Password *string `json:"password,omitempty"`
}

var (
	_ Item = BaseItem{}
	_ Item = LoginItem{}
)
