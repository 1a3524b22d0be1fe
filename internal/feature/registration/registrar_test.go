package registration

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"valley_bot/internal/domain"
	"valley_bot/internal/feature/preference"
)

func TestRegisterCreatesNewOwner(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	repo := newFakeRepo()
	cache := newFakeCache()
	registrar := NewRegistrar(repo, cache, logrus.NewEntry(hookLogger), nil)

	owner := domain.UserOwner(100)
	reg, err := registrar.Register(context.Background(), owner, "  alice ")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !reg.Created {
		t.Fatalf("expected Created=true for new owner")
	}
	if reg.Language != domain.LanguageKorean {
		t.Fatalf("expected default language ko, got %s", reg.Language)
	}

	row := repo.rows[owner]
	if row.name != "alice" || row.lang != domain.LanguageKorean || row.points != 0 {
		t.Fatalf("unexpected stored row %+v", row)
	}
	if cache.entries[owner] != domain.LanguageKorean {
		t.Fatalf("expected cache to hold ko, got %q", cache.entries[owner])
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Data["event"] != "owner_registered" {
		t.Fatalf("expected owner_registered log, got %v", entry)
	}
}

func TestRegisterExistingOwnerLoadsLanguage(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	repo := newFakeRepo()
	owner := domain.GroupOwner(-200)
	repo.rows[owner] = fakeRow{name: "Valley", lang: domain.LanguageEnglish, points: 40}
	cache := newFakeCache()
	registrar := NewRegistrar(repo, cache, logrus.NewEntry(hookLogger), nil)

	reg, err := registrar.Register(context.Background(), owner, "Renamed")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if reg.Created {
		t.Fatalf("expected Created=false for existing owner")
	}
	if reg.Language != domain.LanguageEnglish {
		t.Fatalf("expected stored language en, got %s", reg.Language)
	}
	if repo.rows[owner].points != 40 || repo.rows[owner].name != "Valley" {
		t.Fatalf("expected existing row untouched, got %+v", repo.rows[owner])
	}
	if cache.entries[owner] != domain.LanguageEnglish {
		t.Fatalf("expected cache to hold en, got %q", cache.entries[owner])
	}
}

func TestRegisterFailureLeavesCacheEmpty(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	repo := newFakeRepo()
	repo.err = errors.New("insert failed")
	cache := newFakeCache()
	registrar := NewRegistrar(repo, cache, logrus.NewEntry(hookLogger), nil)

	owner := domain.UserOwner(5)
	if _, err := registrar.Register(context.Background(), owner, "bob"); err == nil {
		t.Fatalf("expected error from failing repository")
	}
	if _, ok := cache.entries[owner]; ok {
		t.Fatalf("expected no cache entry after failure")
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no rows after failure")
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Data["event"] != "registration_error" || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected registration_error log, got %v", entry)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	registrar := NewRegistrar(newFakeRepo(), nil, nil, nil)

	if _, err := registrar.Register(context.Background(), domain.Owner{Kind: domain.OwnerUser}, "x"); !errors.Is(err, domain.ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
	if _, err := registrar.Register(nil, domain.UserOwner(1), "x"); err == nil {
		t.Fatalf("expected nil context error")
	}

	var nilRegistrar *Registrar
	if _, err := nilRegistrar.Register(context.Background(), domain.UserOwner(1), "x"); err == nil {
		t.Fatalf("expected nil registrar error")
	}
}

func TestDisplayNameFallback(t *testing.T) {
	tests := []struct {
		owner domain.Owner
		name  string
		want  string
	}{
		{domain.UserOwner(7), "carol", "carol"},
		{domain.UserOwner(7), "   ", "user_7"},
		{domain.GroupOwner(-100123), "", "group_-100123"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.owner, tt.name); got != tt.want {
			t.Fatalf("DisplayName(%v, %q) = %q, want %q", tt.owner, tt.name, got, tt.want)
		}
	}
}

func TestRegisterDoesNotOverwriteConcurrentLanguageChange(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	logger := logrus.NewEntry(hookLogger)
	owner := domain.UserOwner(300)

	langs := &langRepo{rows: map[domain.Owner]domain.Language{owner: domain.LanguageKorean}}
	prefs := preference.NewStore(langs, logger)

	// The existing row is read as ko, then /language switches it to en
	// before the registrar caches what it read.
	repo := &hookedRepo{
		reg: domain.Registration{Language: domain.LanguageKorean},
		afterRead: func(ctx context.Context) {
			if err := prefs.Set(ctx, owner, domain.LanguageEnglish); err != nil {
				t.Errorf("Set returned error: %v", err)
			}
		},
	}
	registrar := NewRegistrar(repo, prefs, logger, nil)

	reg, err := registrar.Register(context.Background(), owner, "carol")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if reg.Language != domain.LanguageEnglish {
		t.Fatalf("expected registration to report en, got %s", reg.Language)
	}
	if got := prefs.Resolve(context.Background(), owner); got != domain.LanguageEnglish {
		t.Fatalf("expected en to survive registration, got %s", got)
	}
}

type hookedRepo struct {
	reg       domain.Registration
	afterRead func(ctx context.Context)
}

func (h *hookedRepo) Register(ctx context.Context, _ domain.Owner, _ string) (domain.Registration, error) {
	h.afterRead(ctx)
	return h.reg, nil
}

type langRepo struct {
	rows map[domain.Owner]domain.Language
}

func (l *langRepo) LookupLanguage(_ context.Context, owner domain.Owner) (domain.Language, bool, error) {
	lang, ok := l.rows[owner]
	return lang, ok, nil
}

func (l *langRepo) UpdateLanguage(_ context.Context, owner domain.Owner, lang domain.Language) error {
	l.rows[owner] = lang
	return nil
}

type fakeRow struct {
	name   string
	lang   domain.Language
	points int64
}

type fakeRepo struct {
	rows map[domain.Owner]fakeRow
	err  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[domain.Owner]fakeRow)}
}

func (f *fakeRepo) Register(_ context.Context, owner domain.Owner, name string) (domain.Registration, error) {
	if f.err != nil {
		return domain.Registration{}, f.err
	}
	if row, ok := f.rows[owner]; ok {
		return domain.Registration{Created: false, Language: row.lang}, nil
	}
	f.rows[owner] = fakeRow{name: name, lang: domain.DefaultLanguage}
	return domain.Registration{Created: true, Language: domain.DefaultLanguage}, nil
}

type fakeCache struct {
	entries map[domain.Owner]domain.Language
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[domain.Owner]domain.Language)}
}

func (f *fakeCache) Remember(owner domain.Owner, lang domain.Language) domain.Language {
	f.entries[owner] = lang
	return lang
}
