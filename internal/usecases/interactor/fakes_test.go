package interactor

import (
	"context"
	"errors"
	"github.com/bootcamp67/ms-transaction/internal/domain/models"
	"github.com/bootcamp67/ms-transaction/internal/domain/services"
	apperrors "github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/pkg/worker"
	"github.com/shopspring/decimal"
	"sort"
	"sync"
	"time"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeTransactions struct {
	mu        sync.Mutex
	records   map[string]models.Transaction
	inserts   []models.Transaction
	updates   []models.Transaction
	insertErr error
	// updateErr fails updates that move a record to the given status.
	updateErr map[models.Status]error
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{records: map[string]models.Transaction{}, updateErr: map[models.Status]error{}}
}

func (f *fakeTransactions) Insert(_ context.Context, t models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records[t.ID] = t
	f.inserts = append(f.inserts, t)
	return nil
}

func (f *fakeTransactions) Update(_ context.Context, t models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[t.Status]; err != nil {
		return err
	}
	if _, ok := f.records[t.ID]; !ok {
		return apperrors.NewNotFoundError(apperrors.ErrTransactionNotFound)
	}
	f.records[t.ID] = t
	f.updates = append(f.updates, t)
	return nil
}

func (f *fakeTransactions) GetByID(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeTransactions) filter(keep func(models.Transaction) bool) []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Transaction, 0)
	for _, t := range f.records {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.After(out[j].TransactionDate) })
	return out
}

func (f *fakeTransactions) ListAll(_ context.Context) ([]models.Transaction, error) {
	return f.filter(func(models.Transaction) bool { return true }), nil
}

func (f *fakeTransactions) ListByCustomer(_ context.Context, customerID string) ([]models.Transaction, error) {
	return f.filter(func(t models.Transaction) bool { return t.CustomerID == customerID }), nil
}

func (f *fakeTransactions) ListByAccount(_ context.Context, accountID string) ([]models.Transaction, error) {
	return f.filter(func(t models.Transaction) bool { return t.InvolvesAccount(accountID) }), nil
}

func (f *fakeTransactions) ListByCard(_ context.Context, cardID string) ([]models.Transaction, error) {
	return f.filter(func(t models.Transaction) bool { return t.CardID == cardID }), nil
}

func (f *fakeTransactions) ListByCredit(_ context.Context, creditID string) ([]models.Transaction, error) {
	return f.filter(func(t models.Transaction) bool { return t.CreditID == creditID }), nil
}

func (f *fakeTransactions) ListByDateRange(_ context.Context, customerID string, start, end time.Time) ([]models.Transaction, error) {
	return f.filter(func(t models.Transaction) bool {
		return t.CustomerID == customerID && !t.TransactionDate.Before(start) && !t.TransactionDate.After(end)
	}), nil
}

func (f *fakeTransactions) ListPendingBefore(_ context.Context, before time.Time, limit int) ([]models.Transaction, error) {
	out := f.filter(func(t models.Transaction) bool {
		return t.Status == models.StatusPending && t.CreatedAt.Before(before)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTransactions) get(id string) models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id]
}

func (f *fakeTransactions) only() models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.records {
		return t
	}
	return models.Transaction{}
}

type fakeSteps struct {
	mu        sync.Mutex
	steps     []models.SagaStep
	insertErr error
	updateErr error
	// rejectKind limits insertErr to steps of one kind; rejectTimes limits
	// how many inserts fail (0 means every one).
	rejectKind  models.StepKind
	rejectTimes int
	rejected    int
}

func (f *fakeSteps) InsertStep(_ context.Context, step models.SagaStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil && (f.rejectKind == "" || f.rejectKind == step.Kind) &&
		(f.rejectTimes == 0 || f.rejected < f.rejectTimes) {
		f.rejected++
		return f.insertErr
	}
	f.steps = append(f.steps, step)
	return nil
}

func (f *fakeSteps) UpdateStep(_ context.Context, step models.SagaStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.steps {
		if f.steps[i].ID == step.ID {
			f.steps[i] = step
			return nil
		}
	}
	return errors.New("step not found")
}

func (f *fakeSteps) ListSteps(_ context.Context, transactionID string) (models.Steps, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out models.Steps
	for _, s := range f.steps {
		if s.TransactionID == transactionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSteps) ListFailedCompensations(_ context.Context, maxAttempts, limit int) (models.Steps, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out models.Steps
	for _, s := range f.steps {
		if s.Kind == models.StepCompensateSource && s.Status == models.StepFailed && s.Attempts < maxAttempts {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSteps) forTransaction(id string) models.Steps {
	s, _ := f.ListSteps(context.Background(), id)
	return s
}

type balanceCall struct {
	op        string
	accountID string
	amount    decimal.Decimal
}

type balanceReply struct {
	balance decimal.Decimal
	err     error
}

// fakeBalance answers from a queue of replies per "op:account"; an empty queue succeeds with balance 0.
type fakeBalance struct {
	mu      sync.Mutex
	calls   []balanceCall
	replies map[string][]balanceReply
}

func newFakeBalance() *fakeBalance {
	return &fakeBalance{replies: map[string][]balanceReply{}}
}

func (f *fakeBalance) on(op, accountID string, balance string, err error) *fakeBalance {
	key := op + ":" + accountID
	r := balanceReply{err: err}
	if balance != "" {
		r.balance = dec(balance)
	}
	f.replies[key] = append(f.replies[key], r)
	return f
}

func (f *fakeBalance) call(op, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, balanceCall{op: op, accountID: accountID, amount: amount})

	key := op + ":" + accountID
	queue := f.replies[key]
	if len(queue) == 0 {
		return services.BalanceResult{AccountID: accountID}, nil
	}
	r := queue[0]
	f.replies[key] = queue[1:]
	if r.err != nil {
		return services.BalanceResult{}, r.err
	}
	return services.BalanceResult{AccountID: accountID, Balance: r.balance}, nil
}

func (f *fakeBalance) Debit(_ context.Context, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	return f.call("debit", accountID, amount)
}

func (f *fakeBalance) Credit(_ context.Context, accountID string, amount decimal.Decimal) (services.BalanceResult, error) {
	return f.call("credit", accountID, amount)
}

func (f *fakeBalance) recorded() []balanceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]balanceCall(nil), f.calls...)
}

type notification struct {
	eventType services.EventType
	tx        models.Transaction
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (f *fakeNotifier) Notify(eventType services.EventType, tx models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notification{eventType: eventType, tx: tx})
}

func (f *fakeNotifier) types() []services.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []services.EventType
	for _, e := range f.events {
		out = append(out, e.eventType)
	}
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	published []services.TransactionEvent
	err       error
	block     chan struct{}
}

func (f *fakePublisher) Publish(_ context.Context, event services.TransactionEvent) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

var _ taskQueue = (*worker.Pool)(nil)
