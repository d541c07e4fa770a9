package ledger

import (
	"context"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/persistence"
	"kharcha/internal/validation"
)

// SettingsPatch changes only the non-nil fields.
type SettingsPatch struct {
	Language           *core.Language
	DarkMode           *bool
	HasAcceptedPrivacy *bool
	AppLockEnabled     *bool
}

func (l *Ledger) UpdateSettings(ctx context.Context, p SettingsPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.Language != nil {
		if err := validation.Language(*p.Language); err != nil {
			return l.rejected(ctx, log.OpUpdate, err)
		}
		l.settings.Language = *p.Language
	}
	if p.DarkMode != nil {
		l.settings.DarkMode = *p.DarkMode
	}
	if p.HasAcceptedPrivacy != nil {
		l.settings.HasAcceptedPrivacy = *p.HasAcceptedPrivacy
	}
	if p.AppLockEnabled != nil {
		l.settings.AppLockEnabled = *p.AppLockEnabled
	}

	if err := l.store.SaveSettings(ctx, l.settings); err != nil {
		return persistErr(err)
	}
	l.logger.DebugContext(ctx, "Settings updated", "language", l.settings.Language)
	l.notify(ctx, EventSettings, "")
	return nil
}

func (l *Ledger) Settings() core.AppSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// SaveDraft stores the add-expense form content as typed.
func (l *Ledger) SaveDraft(ctx context.Context, d core.Draft) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.draft = &d
	return persistErr(l.store.SaveDraft(ctx, d))
}

func (l *Ledger) ClearDraft(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.draft = nil
	return persistErr(l.store.Delete(ctx, persistence.KeyDraft))
}

// Draft returns the saved form content or nil.
func (l *Ledger) Draft() *core.Draft {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.draft == nil {
		return nil
	}
	d := *l.draft
	return &d
}

func (l *Ledger) MarkSplashSeen(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hasSeenSplash = true
	return persistErr(l.store.SaveFlag(ctx, persistence.KeyHasSeenSplash, true))
}

func (l *Ledger) MarkPrivacyLinkViewed(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hasViewedPrivacyLink = true
	return persistErr(l.store.SaveFlag(ctx, persistence.KeyHasViewedPrivacyLink, true))
}

func (l *Ledger) HasSeenSplash() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasSeenSplash
}

func (l *Ledger) HasViewedPrivacyLink() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasViewedPrivacyLink
}
