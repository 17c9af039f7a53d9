package services

import (
	"context"
	"fmt"
	"time"

	"pocketbook/internal/accounts"
	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	"pocketbook/internal/ledger"
	"pocketbook/internal/log"
	"pocketbook/internal/report"
	"pocketbook/internal/storage"
)

// EventPublisher receives a notification for every ledger mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService gates ledger operations on the session and persists the
// whole store through the gateway after each successful operation. Events
// go out only after the save succeeded.
type LedgerService struct {
	store     *accounts.Store
	session   *accounts.Session
	gateway   storage.Gateway
	publisher EventPublisher
	logger    *log.Logger
}

// NewLedgerService loads the persisted record and restores the store and
// session from it. publisher may be nil.
func NewLedgerService(ctx context.Context, gateway storage.Gateway, hasher accounts.Hasher, publisher EventPublisher, logger *log.Logger) (*LedgerService, error) {
	if logger == nil {
		logger = log.Discard()
	}
	snap, err := gateway.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	store, session, err := accounts.Restore(snap, hasher)
	if err != nil {
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"accounts", store.Len(),
		log.FieldUsername, session.Username())

	return &LedgerService{
		store:     store,
		session:   session,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}, nil
}

// CurrentUser returns the logged in username, or "".
func (s *LedgerService) CurrentUser() string {
	return s.session.Username()
}

func (s *LedgerService) CreateAccount(ctx context.Context, username, credential string) error {
	if err := s.store.Create(username, credential); err != nil {
		s.logFailure(ctx, log.OpCreateAccount, username, err)
		return err
	}
	return s.commit(ctx, log.OpCreateAccount, amqp.NewLedgerEvent(amqp.EventAccountCreated, username))
}

// Login replaces the active account only when authentication succeeds.
func (s *LedgerService) Login(ctx context.Context, username, credential string) error {
	if _, err := s.session.Login(username, credential); err != nil {
		s.logFailure(ctx, log.OpLogin, username, err)
		return err
	}
	return s.commit(ctx, log.OpLogin, nil)
}

func (s *LedgerService) Logout(ctx context.Context) error {
	s.session.Logout()
	return s.commit(ctx, log.OpLogout, nil)
}

func (s *LedgerService) AddIncome(ctx context.Context, amount core.Money) error {
	acct, err := s.active(ctx, log.OpAddIncome)
	if err != nil {
		return err
	}
	if err := ledger.AddIncome(acct, amount); err != nil {
		s.logFailure(ctx, log.OpAddIncome, s.CurrentUser(), err)
		return err
	}

	ev := s.event(amqp.EventIncomeAdded)
	ev.AmountCents = amount.Cents
	return s.commit(ctx, log.OpAddIncome, ev)
}

func (s *LedgerService) AddExpense(ctx context.Context, amount core.Money, description, category, date string) (core.ExpenseEntry, error) {
	acct, err := s.active(ctx, log.OpAddExpense)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	entry, err := ledger.AddExpense(acct, amount, description, category, date)
	if err != nil {
		s.logFailure(ctx, log.OpAddExpense, s.CurrentUser(), err)
		return core.ExpenseEntry{}, err
	}

	ev := s.event(amqp.EventExpenseAdded)
	ev.AmountCents = amount.Cents
	ev.Category = category
	return entry, s.commit(ctx, log.OpAddExpense, ev)
}

func (s *LedgerService) AddRecurringExpense(ctx context.Context, amount core.Money, description, category, frequency string) (core.ExpenseEntry, error) {
	acct, err := s.active(ctx, log.OpAddRecurringExpense)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	entry, err := ledger.AddRecurringExpense(acct, amount, description, category, frequency)
	if err != nil {
		s.logFailure(ctx, log.OpAddRecurringExpense, s.CurrentUser(), err)
		return core.ExpenseEntry{}, err
	}

	ev := s.event(amqp.EventRecurringExpenseAdded)
	ev.AmountCents = amount.Cents
	ev.Category = category
	ev.Frequency = string(entry.Frequency)
	return entry, s.commit(ctx, log.OpAddRecurringExpense, ev)
}

func (s *LedgerService) SetBudget(ctx context.Context, amount core.Money) error {
	acct, err := s.active(ctx, log.OpSetBudget)
	if err != nil {
		return err
	}
	if err := ledger.SetBudget(acct, amount); err != nil {
		s.logFailure(ctx, log.OpSetBudget, s.CurrentUser(), err)
		return err
	}

	ev := s.event(amqp.EventBudgetSet)
	ev.AmountCents = amount.Cents
	return s.commit(ctx, log.OpSetBudget, ev)
}

func (s *LedgerService) Balance(ctx context.Context) (core.Money, error) {
	acct, err := s.active(ctx, log.OpViewBalance)
	if err != nil {
		return core.Money{}, err
	}
	return report.Balance(acct), s.commit(ctx, log.OpViewBalance, nil)
}

func (s *LedgerService) Report(ctx context.Context) (core.Report, error) {
	acct, err := s.active(ctx, log.OpReport)
	if err != nil {
		return core.Report{}, err
	}
	return report.Build(acct), s.commit(ctx, log.OpReport, nil)
}

func (s *LedgerService) active(ctx context.Context, op string) (*core.Account, error) {
	acct, err := s.session.Active()
	if err != nil {
		s.logFailure(ctx, op, "", err)
		return nil, err
	}
	return acct, nil
}

func (s *LedgerService) event(t amqp.EventType) *amqp.LedgerEvent {
	return amqp.NewLedgerEvent(t, s.CurrentUser())
}

// commit saves the store and, only once the save succeeded, publishes ev.
func (s *LedgerService) commit(ctx context.Context, op string, ev *amqp.LedgerEvent) error {
	if err := s.save(ctx, op); err != nil {
		return err
	}
	if ev != nil {
		s.publish(ctx, ev)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			"event_id", ev.ID,
			"event_type", ev.Type,
			log.FieldUsername, ev.Username,
			log.FieldError, err)
	}
}

func (s *LedgerService) save(ctx context.Context, trigger string) error {
	start := time.Now()
	if err := s.gateway.Save(ctx, s.store.Snapshot(s.session)); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpSave).
			WithUsername(s.CurrentUser()).
			WithError(err)
		fields["trigger"] = trigger
		s.logger.ErrorContext(ctx, "Failed to save ledger", fields.ToSlice()...)
		return fmt.Errorf("save ledger: %w", err)
	}
	s.logger.DebugContext(ctx, "Ledger saved",
		log.FieldOperation, log.OpSave,
		"trigger", trigger,
		log.FieldUsername, s.CurrentUser(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (s *LedgerService) logFailure(ctx context.Context, op, username string, err error) {
	fields := log.NewFields().WithOperation(op).WithError(err)
	if username != "" {
		fields = fields.WithUsername(username)
	}
	s.logger.WarnContext(ctx, "Ledger operation failed", fields.ToSlice()...)
}
