package application

import (
	"time"

	"github.com/bnema/opq/internal/domain"
)

// Wire shapes of the tool's JSON output.

type accountRecord struct {
	UUID          string `json:"uuid"`
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	Avatar        string `json:"avatar"`
	BaseAvatarURL string `json:"baseAvatarURL"`
	CreatedAt     string `json:"createdAt"`
}

type userRecord struct {
	UUID       string `json:"uuid"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
	Language   string `json:"language"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	LastAuthAt string `json:"lastAuthAt"`
}

type templateRecord struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type vaultRecord struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Avatar string `json:"avatar"`
}

type itemRecord struct {
	UUID         string       `json:"uuid"`
	TemplateUUID string       `json:"templateUuid"`
	VaultUUID    string       `json:"vaultUuid"`
	Overview     itemOverview `json:"overview"`
	Details      itemDetails  `json:"details"`
}

type itemOverview struct {
	Title string    `json:"title"`
	AInfo string    `json:"ainfo"`
	URL   string    `json:"url"`
	URLs  []itemURL `json:"URLs"`
}

type itemURL struct {
	Label string `json:"l"`
	URL   string `json:"u"`
}

type itemDetails struct {
	Fields []itemField `json:"fields"`
}

type itemField struct {
	Designation string `json:"designation"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value"`
}

// searchKeys lists the fields the fuzzy filter indexes.
func (r itemRecord) searchKeys() []string {
	keys := []string{r.UUID, r.VaultUUID, r.Overview.AInfo, r.Overview.Title, r.Overview.URL}
	for _, u := range r.Overview.URLs {
		keys = append(keys, u.URL)
	}
	return keys
}

// parseTime reads an RFC 3339 timestamp. An empty value means unset; any other
// unparseable value is a protocol error so callers never see a silent zero time.
func parseTime(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &domain.ProtocolError{Reason: "malformed " + field + " timestamp", Output: raw, Err: err}
	}

	return parsed, nil
}
