package points

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"valley_bot/internal/domain"
)

func TestBalanceMissingRowIsZero(t *testing.T) {
	repo := newFakeRepo()
	ledger := newTestLedger(repo)

	summary, err := ledger.Balance(context.Background(), domain.UserOwner(1))
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if summary.Points != 0 || summary.Val != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected balance read not to create a row")
	}
}

func TestBalanceDerivesVal(t *testing.T) {
	repo := newFakeRepo()
	owner := domain.GroupOwner(-3)
	repo.rows[owner] = 1234
	ledger := newTestLedger(repo)

	summary, err := ledger.Balance(context.Background(), owner)
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if summary.Points != 1234 || summary.Val != 123.4 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestBalanceStorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("timeout")

	hookLogger, hook := logtest.NewNullLogger()
	ledger := NewLedger(repo, logrus.NewEntry(hookLogger))

	if _, err := ledger.Balance(context.Background(), domain.UserOwner(1)); err == nil {
		t.Fatalf("expected error")
	}
	if entry := hook.LastEntry(); entry == nil || entry.Data["event"] != "balance_read_error" {
		t.Fatalf("expected balance_read_error log, got %v", entry)
	}
}

func TestIncrementRejectsNonPositiveAmount(t *testing.T) {
	repo := newFakeRepo()
	owner := domain.UserOwner(1)
	repo.rows[owner] = 5
	ledger := newTestLedger(repo)

	for _, amount := range []int64{0, -10} {
		if _, err := ledger.Increment(context.Background(), owner, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if repo.rows[owner] != 5 {
		t.Fatalf("expected balance unchanged, got %d", repo.rows[owner])
	}
}

func TestIncrementUnregisteredOwner(t *testing.T) {
	ledger := newTestLedger(newFakeRepo())

	_, err := ledger.Increment(context.Background(), domain.UserOwner(9), 10)
	if !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	repo := newFakeRepo()
	owner := domain.UserOwner(42)
	repo.rows[owner] = 0
	ledger := newTestLedger(repo)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Increment(context.Background(), owner, 10); err != nil {
				t.Errorf("Increment returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	summary, err := ledger.Balance(context.Background(), owner)
	if err != nil {
		t.Fatalf("Balance returned error: %v", err)
	}
	if summary.Points != workers*10 {
		t.Fatalf("expected %d points, got %d", workers*10, summary.Points)
	}
}

func newTestLedger(repo Repository) *Ledger {
	hookLogger, _ := logtest.NewNullLogger()
	return NewLedger(repo, logrus.NewEntry(hookLogger))
}

type fakeRepo struct {
	mu   sync.Mutex
	rows map[domain.Owner]int64
	err  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[domain.Owner]int64)}
}

func (f *fakeRepo) Balance(_ context.Context, owner domain.Owner) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	return f.rows[owner], nil
}

func (f *fakeRepo) IncrementBalance(_ context.Context, owner domain.Owner, amount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	current, ok := f.rows[owner]
	if !ok {
		return 0, domain.ErrNotRegistered
	}
	current += amount
	f.rows[owner] = current
	return current, nil
}
