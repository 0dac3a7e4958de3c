package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"helpme/internal/models"
	"helpme/internal/qerrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	activeRoomConstraint = "queues_active_room_uniq"
)

// OpenPostgres opens a connection pool and checks that the database answers.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

// MigratePostgres applies the embedded migrations.
func MigratePostgres(url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// PostgresRepository stores everything in Postgres. The partial unique index on queues enforces
// one active queue per room, and the queue_staff primary key enforces one presence per user.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (pr *PostgresRepository) Close() error {
	pr.pool.Close()
	return nil
}

// Users and courses

func (pr *PostgresRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	p := &models.Profile{}
	err := pr.pool.QueryRow(ctx, `
SELECT display_name, email, photo_url, is_admin
  FROM users
 WHERE id = $1
`, id).Scan(&p.DisplayName, &p.Email, &p.PhotoURL, &p.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, qerrors.UserNotFoundError
	}
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Profile: p}, nil
}

func (pr *PostgresRepository) UpsertUser(ctx context.Context, u *models.User) error {
	p := u.Profile
	if p == nil {
		p = &models.Profile{}
	}
	_, err := pr.pool.Exec(ctx, `
INSERT INTO users (id, display_name, email, photo_url, is_admin)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  display_name = EXCLUDED.display_name,
  email        = EXCLUDED.email,
  photo_url    = EXCLUDED.photo_url,
  is_admin     = EXCLUDED.is_admin
`, u.ID, p.DisplayName, p.Email, p.PhotoURL, p.IsAdmin)
	return err
}

func (pr *PostgresRepository) CreateCourse(ctx context.Context, c *models.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return pgx.BeginFunc(ctx, pr.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO courses (id, title, code, term, created_at)
VALUES ($1, $2, $3, $4, $5)
`, c.ID, c.Title, c.Code, c.Term, c.Created)
		if err != nil {
			return fmt.Errorf("error creating course: %w", err)
		}
		for userID, role := range c.Roles {
			_, err = tx.Exec(ctx, `
INSERT INTO user_courses (course_id, user_id, role) VALUES ($1, $2, $3)
`, c.ID, userID, string(role))
			if err != nil {
				return fmt.Errorf("error adding course role: %w", err)
			}
		}
		return nil
	})
}

func (pr *PostgresRepository) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	c := &models.Course{ID: id, Roles: make(map[string]models.Role)}
	err := pr.pool.QueryRow(ctx, `
SELECT title, code, term, created_at FROM courses WHERE id = $1
`, id).Scan(&c.Title, &c.Code, &c.Term, &c.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, qerrors.CourseNotFoundError
	}
	if err != nil {
		return nil, err
	}

	rows, err := pr.pool.Query(ctx, `SELECT user_id, role FROM user_courses WHERE course_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID, role string
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		c.Roles[userID] = models.Role(role)
	}
	return c, rows.Err()
}

func (pr *PostgresRepository) SetCourseRole(ctx context.Context, courseID, userID string, role models.Role) error {
	_, err := pr.pool.Exec(ctx, `
INSERT INTO user_courses (course_id, user_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (course_id, user_id) DO UPDATE SET role = EXCLUDED.role
`, courseID, userID, string(role))
	if pgCode(err) == pgForeignKeyViolation {
		return qerrors.CourseNotFoundError
	}
	return err
}

func (pr *PostgresRepository) GetCourseRole(ctx context.Context, courseID, userID string) (models.Role, error) {
	var role string
	err := pr.pool.QueryRow(ctx, `
SELECT role FROM user_courses WHERE course_id = $1 AND user_id = $2
`, courseID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, cerr := pr.GetCourse(ctx, courseID); cerr != nil {
			return "", cerr
		}
		return "", qerrors.UserCourseNotFoundError
	}
	if err != nil {
		return "", err
	}
	return models.Role(role), nil
}

// Queues

const queueColumns = `id, course_id, room, notes, is_disabled, allow_questions, is_professor_queue, created_at`

func scanQueue(row pgx.Row) (*models.Queue, error) {
	q := &models.Queue{}
	err := row.Scan(&q.ID, &q.CourseID, &q.Room, &q.Notes, &q.IsDisabled, &q.AllowQuestions, &q.IsProfessorQueue, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, qerrors.QueueNotFoundError
	}
	return q, err
}

func (pr *PostgresRepository) CreateQueue(ctx context.Context, q *models.Queue) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := pr.pool.Exec(ctx, `
INSERT INTO queues (id, course_id, room, notes, is_disabled, allow_questions, is_professor_queue, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, q.ID, q.CourseID, q.Room, q.Notes, q.IsDisabled, q.AllowQuestions, q.IsProfessorQueue, q.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeRoomConstraint:
			return qerrors.QueueAlreadyExistsError
		case pgErr.Code == pgForeignKeyViolation:
			return qerrors.CourseNotFoundError
		}
	}
	return err
}

func (pr *PostgresRepository) GetQueue(ctx context.Context, id string) (*models.Queue, error) {
	q, err := scanQueue(pr.pool.QueryRow(ctx, `SELECT `+queueColumns+` FROM queues WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := pr.attachStaff(ctx, []*models.Queue{q}); err != nil {
		return nil, err
	}
	return q, nil
}

func (pr *PostgresRepository) FindActiveQueue(ctx context.Context, courseID, room string) (*models.Queue, error) {
	q, err := scanQueue(pr.pool.QueryRow(ctx, `
SELECT `+queueColumns+`
  FROM queues
 WHERE course_id = $1 AND room = $2 AND NOT is_disabled
`, courseID, room))
	if err != nil {
		return nil, err
	}
	if err := pr.attachStaff(ctx, []*models.Queue{q}); err != nil {
		return nil, err
	}
	return q, nil
}

func (pr *PostgresRepository) ListActiveQueues(ctx context.Context, courseID string) ([]*models.Queue, error) {
	rows, err := pr.pool.Query(ctx, `
SELECT `+queueColumns+`
  FROM queues
 WHERE NOT is_disabled AND ($1 = '' OR course_id = $1)
 ORDER BY created_at ASC
`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Queue
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, pr.attachStaff(ctx, out)
}

func (pr *PostgresRepository) UpdateQueueNotes(ctx context.Context, id, notes string) error {
	tag, err := pr.pool.Exec(ctx, `UPDATE queues SET notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return qerrors.QueueNotFoundError
	}
	return nil
}

func (pr *PostgresRepository) DisableQueue(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, pr.pool, func(tx pgx.Tx) error {
		if _, err := lockQueue(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM queue_staff WHERE queue_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
UPDATE queues SET is_disabled = TRUE, allow_questions = FALSE WHERE id = $1
`, id)
		return err
	})
}

// Presence

func (pr *PostgresRepository) AddStaff(ctx context.Context, queueID, userID string, at time.Time) error {
	return pgx.BeginFunc(ctx, pr.pool, func(tx pgx.Tx) error {
		disabled, err := lockQueue(ctx, tx, queueID)
		if err != nil {
			return err
		}
		if disabled {
			return qerrors.QueueDisabledError
		}

		var current string
		err = tx.QueryRow(ctx, `SELECT queue_id FROM queue_staff WHERE user_id = $1`, userID).Scan(&current)
		switch {
		case err == nil && current == queueID:
			return qerrors.DuplicatePresenceError
		case err == nil:
			return qerrors.AlreadyCheckedInError
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		_, err = tx.Exec(ctx, `
INSERT INTO queue_staff (user_id, queue_id, checked_in_at) VALUES ($1, $2, $3)
`, userID, queueID, at)
		if pgCode(err) == pgUniqueViolation {
			// Checked in somewhere else between the read above and the insert.
			return qerrors.AlreadyCheckedInError
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE queues SET allow_questions = TRUE WHERE id = $1`, queueID)
		return err
	})
}

func (pr *PostgresRepository) RemoveStaff(ctx context.Context, queueID, userID string) (bool, int, error) {
	var removed bool
	var remaining int
	err := pgx.BeginFunc(ctx, pr.pool, func(tx pgx.Tx) error {
		if _, err := lockQueue(ctx, tx, queueID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
DELETE FROM queue_staff WHERE user_id = $1 AND queue_id = $2
`, userID, queueID)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected() > 0

		err = tx.QueryRow(ctx, `SELECT count(*) FROM queue_staff WHERE queue_id = $1`, queueID).Scan(&remaining)
		if err != nil {
			return err
		}
		if remaining == 0 {
			_, err = tx.Exec(ctx, `UPDATE queues SET allow_questions = FALSE WHERE id = $1`, queueID)
		}
		return err
	})
	return removed, remaining, err
}

func (pr *PostgresRepository) GetStaffPresence(ctx context.Context, userID string) (*models.StaffPresence, error) {
	p := &models.StaffPresence{UserID: userID}
	err := pr.pool.QueryRow(ctx, `
SELECT queue_id, checked_in_at FROM queue_staff WHERE user_id = $1
`, userID).Scan(&p.QueueID, &p.CheckedInAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Questions

const questionColumns = `id, queue_id, creator_id, ta_helped_id, text, question_type, status, created_at, helped_at, closed_at`

func scanQuestion(row pgx.Row) (*models.Question, error) {
	q := &models.Question{}
	var status string
	err := row.Scan(&q.ID, &q.QueueID, &q.CreatorID, &q.TAHelpedID, &q.Text, &q.QuestionType, &status, &q.CreatedAt, &q.HelpedAt, &q.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, qerrors.QuestionNotFoundError
	}
	q.Status = models.QuestionStatus(status)
	return q, err
}

func (pr *PostgresRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	_, err := pr.pool.Exec(ctx, `
INSERT INTO questions (`+questionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, q.ID, q.QueueID, q.CreatorID, q.TAHelpedID, q.Text, q.QuestionType, string(q.Status), q.CreatedAt, q.HelpedAt, q.ClosedAt)
	if pgCode(err) == pgForeignKeyViolation {
		return qerrors.QueueNotFoundError
	}
	return err
}

func (pr *PostgresRepository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return scanQuestion(pr.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

func (pr *PostgresRepository) ListQuestions(ctx context.Context, queueID string) ([]*models.Question, error) {
	rows, err := pr.pool.Query(ctx, `
SELECT `+questionColumns+`
  FROM questions
 WHERE queue_id = $1
 ORDER BY created_at ASC
`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (pr *PostgresRepository) UpdateQuestion(ctx context.Context, q *models.Question) error {
	tag, err := pr.pool.Exec(ctx, `
UPDATE questions
   SET status = $2, ta_helped_id = $3, helped_at = $4, closed_at = $5
 WHERE id = $1
`, q.ID, string(q.Status), q.TAHelpedID, q.HelpedAt, q.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return qerrors.QuestionNotFoundError
	}
	return nil
}

func (pr *PostgresRepository) CloseQuestions(ctx context.Context, queueID string, from []models.QuestionStatus, to models.QuestionStatus, at time.Time) (int, error) {
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	tag, err := pr.pool.Exec(ctx, `
UPDATE questions
   SET status = $2, closed_at = $3
 WHERE queue_id = $1 AND status = ANY($4)
`, queueID, string(to), at, statuses)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Events

func (pr *PostgresRepository) AddEvent(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := pr.pool.Exec(ctx, `
INSERT INTO events (id, event_type, user_id, course_id, queue_id, time)
VALUES ($1, $2, $3, $4, $5, $6)
`, e.ID, string(e.Type), e.UserID, e.CourseID, e.QueueID, e.Time)
	return err
}

func (pr *PostgresRepository) ListEvents(ctx context.Context, courseID string, start, end time.Time) ([]*models.Event, error) {
	rows, err := pr.pool.Query(ctx, `
SELECT id, event_type, user_id, course_id, queue_id, time
  FROM events
 WHERE course_id = $1 AND time >= $2 AND time < $3
 ORDER BY time ASC
`, courseID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		e := &models.Event{}
		var eventType string
		if err := rows.Scan(&e.ID, &eventType, &e.UserID, &e.CourseID, &e.QueueID, &e.Time); err != nil {
			return nil, err
		}
		e.Type = models.EventType(eventType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (pr *PostgresRepository) AddCalendarEvent(ctx context.Context, e *models.CalendarEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	days := e.DaysOfWeek
	if days == nil {
		days = []int{}
	}
	_, err := pr.pool.Exec(ctx, `
INSERT INTO calendar_events (id, course_id, title, start_time, end_time, days_of_week, end_date, location_type, location_detail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, e.ID, e.CourseID, e.Title, e.Start, e.End, days, e.EndDate, string(e.LocationType), e.LocationDetail)
	if pgCode(err) == pgForeignKeyViolation {
		return qerrors.CourseNotFoundError
	}
	return err
}

func (pr *PostgresRepository) ListCalendarEvents(ctx context.Context, courseID string) ([]*models.CalendarEvent, error) {
	rows, err := pr.pool.Query(ctx, `
SELECT id, course_id, title, start_time, end_time, days_of_week, end_date, location_type, location_detail
  FROM calendar_events
 WHERE course_id = $1
 ORDER BY start_time ASC
`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CalendarEvent
	for rows.Next() {
		e := &models.CalendarEvent{}
		var locationType string
		if err := rows.Scan(&e.ID, &e.CourseID, &e.Title, &e.Start, &e.End, &e.DaysOfWeek, &e.EndDate, &locationType, &e.LocationDetail); err != nil {
			return nil, err
		}
		e.LocationType = models.LocationType(locationType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Helpers

// lockQueue takes the queue's row lock for the rest of the transaction, serialising presence
// changes on the same queue across server instances.
func lockQueue(ctx context.Context, tx pgx.Tx, queueID string) (disabled bool, err error) {
	err = tx.QueryRow(ctx, `SELECT is_disabled FROM queues WHERE id = $1 FOR UPDATE`, queueID).Scan(&disabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, qerrors.QueueNotFoundError
	}
	return disabled, err
}

// attachStaff loads the presence sets of the given queues.
func (pr *PostgresRepository) attachStaff(ctx context.Context, queues []*models.Queue) error {
	if len(queues) == 0 {
		return nil
	}
	byID := make(map[string]*models.Queue, len(queues))
	ids := make([]string, 0, len(queues))
	for _, q := range queues {
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}

	rows, err := pr.pool.Query(ctx, `
SELECT queue_id, user_id, checked_in_at
  FROM queue_staff
 WHERE queue_id = ANY($1)
 ORDER BY checked_in_at ASC
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.StaffPresence
		if err := rows.Scan(&p.QueueID, &p.UserID, &p.CheckedInAt); err != nil {
			return err
		}
		byID[p.QueueID].Staff = append(byID[p.QueueID].Staff, p)
	}
	return rows.Err()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
