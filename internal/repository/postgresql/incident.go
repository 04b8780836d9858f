package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/incident"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const incidentColumns = `
	id, employee_id, date, scheduled_time_in, actual_time_in, minutes_late,
	reason, type, stage, reviewer_id, created_at, updated_at`

// incidentTables maps each kind to its table. Table names never come from input.
var incidentTables = map[incident.Kind]string{
	incident.KindLate:    "late_logs",
	incident.KindHalfDay: "half_day_logs",
}

type incidentRepository struct {
	db *database.DB
}

func NewIncidentRepository(db *database.DB) incident.IncidentRepository {
	return &incidentRepository{db: db}
}

func incidentTable(kind incident.Kind) (string, error) {
	table, ok := incidentTables[kind]
	if !ok {
		return "", incident.ErrInvalidKind
	}
	return table, nil
}

func scanIncident(kind incident.Kind, row pgx.Row) (incident.Incident, error) {
	inc := incident.Incident{Kind: kind}
	err := row.Scan(
		&inc.ID, &inc.EmployeeID, &inc.Date, &inc.ScheduledTimeIn, &inc.ActualTimeIn, &inc.MinutesLate,
		&inc.Reason, &inc.Outcome, &inc.Stage, &inc.ReviewerID, &inc.CreatedAt, &inc.UpdatedAt,
	)
	return inc, err
}

// Create implements incident.IncidentRepository. A concurrent open for the
// same day resolves to the incident that is already Created.
func (r *incidentRepository) Create(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	table, err := incidentTable(inc.Kind)
	if err != nil {
		return incident.Incident{}, err
	}
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s (employee_id, date, scheduled_time_in, actual_time_in, minutes_late, reason, stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, date) WHERE stage = 'Created' DO NOTHING
		RETURNING%s`, table, incidentColumns)

	created, err := scanIncident(inc.Kind, q.QueryRow(ctx, query,
		inc.EmployeeID, inc.Date, inc.ScheduledTimeIn, inc.ActualTimeIn, inc.MinutesLate, inc.Reason, inc.Stage,
	))
	if err == nil {
		return created, nil
	}
	if err != pgx.ErrNoRows {
		return incident.Incident{}, fmt.Errorf("failed to create %s incident: %w", inc.Kind, err)
	}
	return r.FindLatestCreated(ctx, inc.Kind, inc.EmployeeID, inc.Date)
}

// GetByID implements incident.IncidentRepository.
func (r *incidentRepository) GetByID(ctx context.Context, kind incident.Kind, id string) (incident.Incident, error) {
	return r.getByID(ctx, kind, id, false)
}

// LockByID implements incident.IncidentRepository.
func (r *incidentRepository) LockByID(ctx context.Context, kind incident.Kind, id string) (incident.Incident, error) {
	return r.getByID(ctx, kind, id, true)
}

func (r *incidentRepository) getByID(ctx context.Context, kind incident.Kind, id string, lock bool) (incident.Incident, error) {
	table, err := incidentTable(kind)
	if err != nil {
		return incident.Incident{}, err
	}
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT%s FROM %s WHERE id = $1`, incidentColumns, table)
	if lock {
		query += ` FOR UPDATE`
	}

	inc, err := scanIncident(kind, q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return incident.Incident{}, incident.ErrIncidentNotFound
		}
		return incident.Incident{}, fmt.Errorf("failed to get %s incident: %w", kind, err)
	}
	return inc, nil
}

// FindLatestCreated implements incident.IncidentRepository.
func (r *incidentRepository) FindLatestCreated(ctx context.Context, kind incident.Kind, employeeID string, date time.Time) (incident.Incident, error) {
	table, err := incidentTable(kind)
	if err != nil {
		return incident.Incident{}, err
	}
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT%s FROM %s
		WHERE employee_id = $1 AND date = $2 AND stage = 'Created'
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`, incidentColumns, table)

	inc, err := scanIncident(kind, q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if err == pgx.ErrNoRows {
			return incident.Incident{}, incident.ErrNoOpenIncident
		}
		return incident.Incident{}, fmt.Errorf("failed to find open %s incident: %w", kind, err)
	}
	return inc, nil
}

// Update implements incident.IncidentRepository.
func (r *incidentRepository) Update(ctx context.Context, inc incident.Incident) error {
	table, err := incidentTable(inc.Kind)
	if err != nil {
		return err
	}
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s SET reason = $2, type = $3, stage = $4, reviewer_id = $5, updated_at = NOW()
		WHERE id = $1`, table)

	tag, err := q.Exec(ctx, query, inc.ID, inc.Reason, inc.Outcome, inc.Stage, inc.ReviewerID)
	if err != nil {
		return fmt.Errorf("failed to update %s incident: %w", inc.Kind, err)
	}
	if tag.RowsAffected() == 0 {
		return incident.ErrIncidentNotFound
	}
	return nil
}

func incidentWhere(q incident.Query) (string, []interface{}) {
	where := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if q.EmployeeID != nil {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *q.EmployeeID)
		argIdx++
	}
	if q.Stage != nil {
		where += fmt.Sprintf(" AND stage = $%d", argIdx)
		args = append(args, *q.Stage)
		argIdx++
	}
	if q.From != nil {
		where += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *q.From)
		argIdx++
	}
	if q.To != nil {
		where += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *q.To)
	}
	return where, args
}

// List implements incident.IncidentRepository.
func (r *incidentRepository) List(ctx context.Context, kind incident.Kind, iq incident.Query) ([]incident.Incident, int64, error) {
	table, err := incidentTable(kind)
	if err != nil {
		return nil, 0, err
	}
	q := GetQuerier(ctx, r.db)
	where, args := incidentWhere(iq)

	var total int64
	if err := q.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s incidents: %w", kind, err)
	}

	query := fmt.Sprintf(`
		SELECT%s FROM %s
		WHERE %s
		ORDER BY created_at DESC
		LIMIT NULLIF($%d, 0) OFFSET $%d`, incidentColumns, table, where, len(args)+1, len(args)+2)
	args = append(args, iq.Limit, iq.Offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s incidents: %w", kind, err)
	}
	defer rows.Close()

	var incidents []incident.Incident
	for rows.Next() {
		inc, err := scanIncident(kind, rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s incident: %w", kind, err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate %s incidents: %w", kind, err)
	}
	return incidents, total, nil
}

// Stats implements incident.IncidentRepository.
func (r *incidentRepository) Stats(ctx context.Context, kind incident.Kind, iq incident.Query) (incident.Stats, error) {
	table, err := incidentTable(kind)
	if err != nil {
		return incident.Stats{}, err
	}
	q := GetQuerier(ctx, r.db)
	where, args := incidentWhere(iq)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stage = 'Created'),
			COUNT(*) FILTER (WHERE stage = 'Pending'),
			COUNT(*) FILTER (WHERE stage = 'Completed'),
			COUNT(*) FILTER (WHERE type = 'paid'),
			COUNT(*) FILTER (WHERE type = 'unpaid')
		FROM %s
		WHERE %s`, table, where)

	var st incident.Stats
	if err := q.QueryRow(ctx, query, args...).Scan(
		&st.Total, &st.Created, &st.Pending, &st.Completed, &st.Paid, &st.Unpaid,
	); err != nil {
		return incident.Stats{}, fmt.Errorf("failed to get %s incident stats: %w", kind, err)
	}
	return st, nil
}
