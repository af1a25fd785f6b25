package listing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/opq/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const maskedSecret = "********"

type RenderOptions struct {
	Now time.Time
	// Reveal prints login passwords instead of a mask.
	Reveal bool
}

func Items(items []domain.Item, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		lines := []string{
			s.title.Render("Items"),
			s.header.Render(fmt.Sprintf("items: %d", len(items))),
		}
		if len(items) == 0 {
			return joinEmpty(lines, s, "No items matched.")
		}

		for _, item := range items {
			lines = append(lines, s.section.Render(itemBlock(item, opts, s)))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func Item(item domain.Item, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return itemBlock(item, opts, s)
	})
}

func Vaults(vaults []domain.Vault, _ RenderOptions) (string, error) {
	return render(func(s styles) string {
		lines := []string{
			s.title.Render("Vaults"),
			s.header.Render(fmt.Sprintf("vaults: %d", len(vaults))),
		}
		if len(vaults) == 0 {
			return joinEmpty(lines, s, "No vaults available.")
		}

		for _, v := range vaults {
			lines = append(lines, entryLine(v.Name, string(v.ID), s))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func Vault(vault domain.VaultDetails, _ RenderOptions) (string, error) {
	return render(func(s styles) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			entryLine(vault.Name, string(vault.ID), s),
			field("description", orNA(vault.Description), s),
			field("avatar", vault.AvatarURL, s),
		)
	})
}

func Templates(templates []domain.Template, _ RenderOptions) (string, error) {
	return render(func(s styles) string {
		lines := []string{
			s.title.Render("Templates"),
			s.header.Render(fmt.Sprintf("templates: %d", len(templates))),
		}
		if len(templates) == 0 {
			return joinEmpty(lines, s, "No templates available.")
		}

		for _, t := range templates {
			lines = append(lines, entryLine(t.Name, string(t.ID), s))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func Users(users []domain.User, _ RenderOptions) (string, error) {
	return render(func(s styles) string {
		lines := []string{
			s.title.Render("Users"),
			s.header.Render(fmt.Sprintf("users: %d", len(users))),
		}
		if len(users) == 0 {
			return joinEmpty(lines, s, "No users available.")
		}

		for _, u := range users {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
				entryLine(u.Name, string(u.ID), s),
				" ",
				s.detail.Render(u.Email),
			))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	})
}

func User(user domain.UserDetails, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			entryLine(user.Name, string(user.ID), s),
			field("email", user.Email, s),
			field("language", orNA(user.Language), s),
			field("created", formatTime(user.CreatedAt, opts.Now), s),
			field("updated", formatTime(user.UpdatedAt, opts.Now), s),
			field("last auth", formatTime(user.LastAuthAt, opts.Now), s),
			field("avatar", user.AvatarURL, s),
		)
	})
}

func Account(account domain.Account, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			entryLine(account.Name, string(account.ID), s),
			field("created", formatTime(account.CreatedAt, opts.Now), s),
			field("avatar", account.AvatarURL, s),
		)
	})
}

// Session reports whether the stored session is usable and for how long.
func Session(session domain.Session, opts RenderOptions) (string, error) {
	return render(func(s styles) string {
		if !session.IsValid(opts.Now) {
			return s.warning.Render("session expired") + " " +
				s.id.Render(fmt.Sprintf("(at %s)", session.ExpiresAt.Local().Format("15:04 on 02 Jan")))
		}

		remaining := session.Remaining(opts.Now)
		expiry := lipgloss.NewStyle().
			Foreground(remainingColor(remaining, domain.DefaultSessionLease)).
			Render(formatExpiry(session.ExpiresAt, opts.Now))

		return lipgloss.JoinHorizontal(lipgloss.Top, s.name.Render("signed in"), " ", expiry)
	})
}

func itemBlock(item domain.Item, opts RenderOptions, s styles) string {
	base := item.Base()
	parts := []string{
		entryLine(base.Title, string(base.ID), s),
		field("vault", base.Vault.Name, s),
		field("template", base.Template.Name, s),
	}

	if login, ok := item.(domain.LoginItem); ok {
		parts = append(parts, field("username", orNA(login.Username), s))
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top,
			s.key.Render("password"),
			passwordValue(login.Password, opts.Reveal, s),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func passwordValue(password *string, reveal bool, s styles) string {
	switch {
	case password == nil:
		return s.empty.Render("none")
	case reveal:
		return s.secret.Render(*password)
	default:
		return s.secret.Render(maskedSecret)
	}
}

func entryLine(name, id string, s styles) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = "(untitled)"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.name.Render(trimmed), " ", s.id.Render("("+id+")"))
}

func field(key, value string, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key), s.detail.Render(value))
}

func joinEmpty(lines []string, s styles, message string) string {
	lines = append(lines, s.empty.Render(message))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "n/a"
	}
	return v
}

func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return t.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := t.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return t.Format("15:04")
	}

	return t.Format("15:04 on 02 Jan 2006")
}

func formatExpiry(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	suffix := "minutes"
	if minutes == 1 {
		suffix = "minute"
	}

	return fmt.Sprintf("expires in %d %s (%s)", minutes, suffix, expiresAt.Format("15:04"))
}

// remainingColor fades from bright white with a full lease toward grey as
// the session nears expiry.
func remainingColor(remaining, lease time.Duration) lipgloss.Color {
	if lease <= 0 {
		return lipgloss.Color("255")
	}

	normalized := remaining.Seconds() / lease.Seconds()
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale: 240 faded, 255 bright.
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
