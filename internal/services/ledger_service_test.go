package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/accounts"
	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	"pocketbook/internal/log"
	"pocketbook/internal/storage/memory"
)

type recordingPublisher struct {
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	var out []amqp.EventType
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type failingGateway struct {
	*memory.Store
}

func (failingGateway) Save(context.Context, accounts.Snapshot) error {
	return errors.New("disk full")
}

func newService(t *testing.T) (*LedgerService, *memory.Store, *recordingPublisher) {
	t.Helper()
	gw := memory.New()
	pub := &recordingPublisher{}
	svc, err := NewLedgerService(context.Background(), gw, accounts.PlainHasher{}, pub, nil)
	require.NoError(t, err)
	return svc, gw, pub
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

func TestScenarioA(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw1"))
	require.NoError(t, svc.Login(ctx, "alice", "pw1"))
	assert.Equal(t, "alice", svc.CurrentUser())

	require.NoError(t, svc.AddIncome(ctx, cents(50000)))
	_, err := svc.AddExpense(ctx, cents(5000), "lunch", "food", "2024-01-05")
	require.NoError(t, err)

	balance, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "$450.00", core.FormatCurrency(balance))

	r, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{{Name: "food", Amount: cents(5000)}}, r.Breakdown)

	assert.Equal(t, []amqp.EventType{
		amqp.EventAccountCreated,
		amqp.EventIncomeAdded,
		amqp.EventExpenseAdded,
	}, pub.types())
	assert.Equal(t, "food", pub.events[2].Category)
	assert.Equal(t, int64(5000), pub.events[2].AmountCents)
}

func TestScenarioB(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw1"))
	require.NoError(t, svc.Login(ctx, "alice", "pw1"))

	for _, e := range []struct {
		amount         int64
		desc, cat, day string
	}{
		{5000, "lunch", "food", "2024-01-05"},
		{2000, "coffee", "food", "2024-01-06"},
		{10000, "rent", "housing", "2024-01-01"},
	} {
		_, err := svc.AddExpense(ctx, cents(e.amount), e.desc, e.cat, e.day)
		require.NoError(t, err)
	}

	r, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Name: "food", Amount: cents(7000)},
		{Name: "housing", Amount: cents(10000)},
	}, r.Breakdown)
	assert.Equal(t, int64(17000), r.TotalExpenses.Cents)
}

func TestScenarioC_RecurringNotDeduplicated(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw1"))
	require.NoError(t, svc.Login(ctx, "alice", "pw1"))

	for i := 0; i < 2; i++ {
		entry, err := svc.AddRecurringExpense(ctx, cents(3000), "gym", "health", "Monthly")
		require.NoError(t, err)
		assert.Equal(t, core.Monthly, entry.Frequency)
	}

	r, err := svc.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{{Name: "health", Amount: cents(6000)}}, r.Breakdown)
	assert.Equal(t, "monthly", pub.events[len(pub.events)-1].Frequency)
}

func TestScenarioD_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, gw, pub := newService(t)

	require.NoError(t, svc.CreateAccount(ctx, "bob", "a"))
	saves := gw.Saves()

	err := svc.CreateAccount(ctx, "bob", "b")
	require.ErrorIs(t, err, accounts.ErrDuplicateUsername)
	assert.Equal(t, saves, gw.Saves(), "failed operations save nothing")
	assert.Len(t, pub.events, 1)

	snap, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 1)
	assert.Equal(t, "a", snap.Users["bob"].Credential)
}

func TestScenarioE_WrongCredential(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	require.NoError(t, svc.CreateAccount(ctx, "bob", "right"))

	err := svc.Login(ctx, "bob", "wrong")
	require.ErrorIs(t, err, accounts.ErrInvalidCredential)
	assert.Empty(t, svc.CurrentUser())

	err = svc.Login(ctx, "carol", "x")
	require.ErrorIs(t, err, accounts.ErrUnknownUsername)
}

func TestOperationsRequireLogin(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newService(t)

	assert.ErrorIs(t, svc.AddIncome(ctx, cents(1)), accounts.ErrNotLoggedIn)
	_, err := svc.AddExpense(ctx, cents(1), "x", "y", "2024-01-01")
	assert.ErrorIs(t, err, accounts.ErrNotLoggedIn)
	_, err = svc.AddRecurringExpense(ctx, cents(1), "x", "y", "weekly")
	assert.ErrorIs(t, err, accounts.ErrNotLoggedIn)
	assert.ErrorIs(t, svc.SetBudget(ctx, cents(1)), accounts.ErrNotLoggedIn)
	_, err = svc.Balance(ctx)
	assert.ErrorIs(t, err, accounts.ErrNotLoggedIn)
	_, err = svc.Report(ctx)
	assert.ErrorIs(t, err, accounts.ErrNotLoggedIn)

	assert.Zero(t, gw.Saves())
}

func TestInvalidDateLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	svc, gw, pub := newService(t)
	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw"))
	require.NoError(t, svc.Login(ctx, "alice", "pw"))
	saves, events := gw.Saves(), len(pub.events)

	_, err := svc.AddExpense(ctx, cents(100), "x", "food", "2024-13-40")
	require.ErrorIs(t, err, core.ErrInvalidDate)
	assert.Equal(t, saves, gw.Saves())
	assert.Len(t, pub.events, events)

	total, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, total.Cents)
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	svc, gw, _ := newService(t)
	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw"))
	require.NoError(t, svc.Login(ctx, "alice", "pw"))
	require.NoError(t, svc.SetBudget(ctx, cents(250000)))

	restarted, err := NewLedgerService(ctx, gw, accounts.PlainHasher{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", restarted.CurrentUser())

	r, err := restarted.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), r.Budget.Cents)

	require.NoError(t, restarted.Logout(ctx))
	require.NoError(t, restarted.Logout(ctx), "logout is idempotent")

	again, err := NewLedgerService(ctx, gw, accounts.PlainHasher{}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, again.CurrentUser())
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	svc, gw, pub := newService(t)
	pub.err = errors.New("circuit breaker is open")

	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw"))
	require.NoError(t, svc.Login(ctx, "alice", "pw"))
	require.NoError(t, svc.AddIncome(ctx, cents(100)))
	assert.Equal(t, 3, gw.Saves())
}

func TestSaveFailureIsReported(t *testing.T) {
	ctx := context.Background()
	svc, err := NewLedgerService(ctx, failingGateway{memory.New()}, accounts.PlainHasher{}, nil, nil)
	require.NoError(t, err)

	err = svc.CreateAccount(ctx, "alice", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save ledger")
}

// toggleGateway saves normally until failing is set.
type toggleGateway struct {
	*memory.Store
	failing bool
}

func (g *toggleGateway) Save(ctx context.Context, snap accounts.Snapshot) error {
	if g.failing {
		return errors.New("disk full")
	}
	return g.Store.Save(ctx, snap)
}

func TestNoEventWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, err := NewLedgerService(ctx, failingGateway{memory.New()}, accounts.PlainHasher{}, pub, nil)
	require.NoError(t, err)

	require.Error(t, svc.CreateAccount(ctx, "alice", "pw"))
	assert.Empty(t, pub.events)

	gw := &toggleGateway{Store: memory.New()}
	svc, err = NewLedgerService(ctx, gw, accounts.PlainHasher{}, pub, nil)
	require.NoError(t, err)
	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw"))
	require.NoError(t, svc.Login(ctx, "alice", "pw"))
	published := len(pub.events)

	gw.failing = true
	require.Error(t, svc.AddIncome(ctx, cents(100)))
	_, err = svc.AddExpense(ctx, cents(50), "coffee", "food", "2024-01-05")
	require.Error(t, err)
	_, err = svc.AddRecurringExpense(ctx, cents(999), "music", "fun", "monthly")
	require.Error(t, err)
	require.Error(t, svc.SetBudget(ctx, cents(1000)))
	assert.Len(t, pub.events, published, "no event may describe an unsaved change")
}

func TestOverflowingIncomeIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, gw, pub := newService(t)
	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw"))
	require.NoError(t, svc.Login(ctx, "alice", "pw"))

	big, err := core.ParseAmount("10000000000000")
	require.NoError(t, err)
	var rejected error
	for i := 0; i < 10000 && rejected == nil; i++ {
		rejected = svc.AddIncome(ctx, big)
	}
	require.ErrorIs(t, rejected, core.ErrInvalidAmount)

	saves, events := gw.Saves(), len(pub.events)
	balance, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Cents > 0, "income must never wrap negative")
	require.ErrorIs(t, svc.AddIncome(ctx, big), core.ErrInvalidAmount)
	assert.Equal(t, saves+1, gw.Saves(), "only the balance view saved")
	assert.Len(t, pub.events, events)
}

func TestHashedCredentials(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	svc, err := NewLedgerService(ctx, gw, accounts.BcryptHasher{Cost: 4}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.CreateAccount(ctx, "alice", "secret"))
	snap, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", snap.Users["alice"].Credential)

	require.ErrorIs(t, svc.Login(ctx, "alice", "nope"), accounts.ErrInvalidCredential)
	require.NoError(t, svc.Login(ctx, "alice", "secret"))
}

func TestCorruptStateIsFatal(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	ghost := "ghost"
	require.NoError(t, gw.Save(ctx, accounts.Snapshot{Users: map[string]*core.Account{}, CurrentUser: &ghost}))

	_, err := NewLedgerService(ctx, gw, accounts.PlainHasher{}, nil, nil)
	require.ErrorIs(t, err, accounts.ErrCorruptState)
}

func TestSaveIsLoggedWithTriggerAndDuration(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: &buf})
	svc, err := NewLedgerService(ctx, memory.New(), accounts.PlainHasher{}, nil, logger)
	require.NoError(t, err)

	require.NoError(t, svc.CreateAccount(ctx, "alice", "pw"))
	out := buf.String()
	assert.Contains(t, out, `msg="Ledger saved" component=ledger operation=save trigger=`+log.OpCreateAccount)
	assert.Contains(t, out, log.FieldDuration+"=")
}
