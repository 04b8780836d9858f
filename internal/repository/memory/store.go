// Package memory is a process-local implementation of the repositories for
// development and tests. Transactions are serialized; a failed transaction
// or savepoint restores the snapshot taken when it began. Writes made outside
// a transaction wait for the open one to finish, so a rollback never discards
// them.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/maintenance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type txKey struct{}

type dataset struct {
	employees     map[string]employee.Employee
	policy        *company.Policy
	records       map[string]attendance.DailyRecord
	recordByDay   map[string]string
	lifetime      map[string]attendance.LifetimeAggregate
	monthly       map[string]attendance.MonthlySummary
	incidents     map[string]incident.Incident
	incidentSeq   map[string]int64
	leaves        map[string]leave.LeaveRecord
	sales         map[string]payroll.SalesAdjustment
	deductionLogs map[string]payroll.DeductionLog
	runs          map[string]maintenance.Run
	seq           int64
}

func newDataset() dataset {
	return dataset{
		employees:     make(map[string]employee.Employee),
		records:       make(map[string]attendance.DailyRecord),
		recordByDay:   make(map[string]string),
		lifetime:      make(map[string]attendance.LifetimeAggregate),
		monthly:       make(map[string]attendance.MonthlySummary),
		incidents:     make(map[string]incident.Incident),
		incidentSeq:   make(map[string]int64),
		leaves:        make(map[string]leave.LeaveRecord),
		sales:         make(map[string]payroll.SalesAdjustment),
		deductionLogs: make(map[string]payroll.DeductionLog),
		runs:          make(map[string]maintenance.Run),
	}
}

func (d dataset) clone() dataset {
	c := dataset{
		employees:     maps.Clone(d.employees),
		records:       maps.Clone(d.records),
		recordByDay:   maps.Clone(d.recordByDay),
		lifetime:      maps.Clone(d.lifetime),
		monthly:       maps.Clone(d.monthly),
		incidents:     maps.Clone(d.incidents),
		incidentSeq:   maps.Clone(d.incidentSeq),
		leaves:        maps.Clone(d.leaves),
		sales:         maps.Clone(d.sales),
		deductionLogs: maps.Clone(d.deductionLogs),
		runs:          maps.Clone(d.runs),
		seq:           d.seq,
	}
	if d.policy != nil {
		p := *d.policy
		c.policy = &p
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data dataset
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newDataset(), now: time.Now}
}

// SetClock replaces the source of created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, true)
	}

	snapshot := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// EnsureHealthy implements database.HealthChecker.
func (s *Store) EnsureHealthy(context.Context) error {
	return nil
}

func (s *Store) snapshot() dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

func (s *Store) restore(d dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
}

// lock takes the write lock. Outside a transaction it also holds txMu for
// the duration of the write.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PutEmployee seeds or replaces an employee.
func (s *Store) PutEmployee(e employee.Employee) {
	defer s.lock(context.Background())()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.UpdatedAt = s.now()
	s.data.employees[e.ID] = e
}

// PutPolicy seeds the company policy.
func (s *Store) PutPolicy(p company.Policy) {
	defer s.lock(context.Background())()
	p.UpdatedAt = s.now()
	s.data.policy = &p
}

// PutSalesAdjustment seeds the sales figures of one employee and month.
func (s *Store) PutSalesAdjustment(a payroll.SalesAdjustment) {
	defer s.lock(context.Background())()
	s.data.sales[monthKey(a.EmployeeID, a.Month)] = a
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func monthKey(employeeID, month string) string {
	return employeeID + "|" + month
}

var (
	_ database.Transactor    = (*Store)(nil)
	_ database.HealthChecker = (*Store)(nil)
)
