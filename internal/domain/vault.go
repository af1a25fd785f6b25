package domain

type VaultID string

type Vault struct {
	ID   VaultID `json:"id"`
	Name string  `json:"name"`
}

type VaultDetails struct {
	Vault
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type TemplateID string

// LoginTemplateID is the well-known id of the Login template.
const LoginTemplateID TemplateID = "001"

type Template struct {
	ID   TemplateID `json:"id"`
	Name string     `json:"name"`
}
