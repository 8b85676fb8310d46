package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/interview-engine/internal/models"
)

// PostgreSQL error codes mapped onto storage sentinels
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// Candidates

const candidateColumns = `id, name, email, phone, job_role, resume_text, created_at`

// CreateCandidate inserts a candidate and assigns its id
func (r *PostgresRepository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	stampIfZero(&c.CreatedAt)

	query := `
		INSERT INTO candidates (name, email, phone, job_role, resume_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query,
		c.Name, c.Email, c.Phone, c.JobRole, c.ResumeText, c.CreatedAt,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create candidate: %w", mapPgError(err))
	}

	return nil
}

// GetCandidate retrieves a candidate by id
func (r *PostgresRepository) GetCandidate(ctx context.Context, id int64) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`

	c, err := scanCandidate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	return c, nil
}

// ListCandidates returns all candidates ordered by id
func (r *PostgresRepository) ListCandidates(ctx context.Context) ([]*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates ORDER BY id`
	return r.queryCandidates(ctx, query)
}

// ListCandidatesByEmail returns candidates with the email, newest first
func (r *PostgresRepository) ListCandidatesByEmail(ctx context.Context, email string) ([]*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE email = $1 ORDER BY created_at DESC, id DESC`
	return r.queryCandidates(ctx, query, email)
}

func (r *PostgresRepository) queryCandidates(ctx context.Context, query string, args ...any) ([]*models.Candidate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []*models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// DeleteCandidate removes a candidate, its interviews, and their answers and
// evaluations in one transaction
func (r *PostgresRepository) DeleteCandidate(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM interviews WHERE candidate_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to list candidate interviews: %w", err)
		}
		interviewIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("failed to scan candidate interviews: %w", err)
		}

		for _, interviewID := range interviewIDs {
			if err := deleteInterviewTx(ctx, tx, interviewID); err != nil {
				return err
			}
		}

		result, err := tx.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete candidate: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("candidate %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

func scanCandidate(row scanner) (*models.Candidate, error) {
	var c models.Candidate
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.JobRole, &c.ResumeText, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// Interviews

const interviewColumns = `id, candidate_id, questions, current_question_index, status, created_at, completed_at`

// CreateInterview inserts an interview and assigns its id
func (r *PostgresRepository) CreateInterview(ctx context.Context, iv *models.Interview) error {
	stampIfZero(&iv.CreatedAt)

	questions := iv.Questions
	if questions == nil {
		questions = []string{}
	}
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO interviews (candidate_id, questions, current_question_index, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query,
		iv.CandidateID,
		questionsJSON,
		iv.CurrentQuestionIndex,
		string(iv.Status),
		iv.CreatedAt,
		nullTime(iv.CompletedAt),
	).Scan(&iv.ID); err != nil {
		return fmt.Errorf("failed to create interview: %w", mapPgError(err))
	}

	return nil
}

// GetInterview retrieves an interview by id
func (r *PostgresRepository) GetInterview(ctx context.Context, id int64) (*models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE id = $1`

	iv, err := scanInterview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}

	return iv, nil
}

// ListInterviewsByCandidate returns the candidate's interviews ordered by id
func (r *PostgresRepository) ListInterviewsByCandidate(ctx context.Context, candidateID int64) ([]*models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE candidate_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	interviews := []*models.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, iv)
	}

	return interviews, rows.Err()
}

// UpdateInterviewProgress sets the current question index
func (r *PostgresRepository) UpdateInterviewProgress(ctx context.Context, id int64, currentIndex int) error {
	return r.execOne(ctx, "interview", id,
		`UPDATE interviews SET current_question_index = $2 WHERE id = $1`, id, currentIndex)
}

// SetInterviewStatus overwrites the interview status
func (r *PostgresRepository) SetInterviewStatus(ctx context.Context, id int64, status models.InterviewStatus) error {
	return r.execOne(ctx, "interview", id,
		`UPDATE interviews SET status = $2 WHERE id = $1`, id, string(status))
}

// CompleteInterview marks the interview completed at the given time
func (r *PostgresRepository) CompleteInterview(ctx context.Context, id int64, completedAt time.Time) error {
	stampIfZero(&completedAt)
	return r.execOne(ctx, "interview", id,
		`UPDATE interviews SET status = $2, completed_at = $3 WHERE id = $1`,
		id, string(models.InterviewCompleted), completedAt)
}

// DeleteInterview removes an interview with its answers and evaluation
func (r *PostgresRepository) DeleteInterview(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return deleteInterviewTx(ctx, tx, id)
	})
}

func deleteInterviewTx(ctx context.Context, tx pgx.Tx, id int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE interview_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM evaluations WHERE interview_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete interview: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListInterviewRecords joins every interview with its candidate and
// evaluation, newest first
func (r *PostgresRepository) ListInterviewRecords(ctx context.Context) ([]*models.InterviewRecord, error) {
	query := `
		SELECT i.id, i.candidate_id, i.questions, i.current_question_index, i.status, i.created_at, i.completed_at,
		       c.id, c.name, c.email, c.phone, c.job_role, c.resume_text, c.created_at,
		       e.id, e.overall_score, e.technical_score, e.behavioral_score,
		       e.strengths, e.improvement_areas, e.recommendation, e.created_at
		FROM interviews i
		JOIN candidates c ON c.id = i.candidate_id
		LEFT JOIN evaluations e ON e.interview_id = i.id
		ORDER BY i.created_at DESC, i.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview records: %w", err)
	}
	defer rows.Close()

	records := []*models.InterviewRecord{}
	for rows.Next() {
		var iv models.Interview
		var c models.Candidate
		var status string
		var questionsJSON []byte
		var completedAt sql.NullTime

		var evalID, overall, technical, behavioral sql.NullInt64
		var strengths, improvements, recommendation sql.NullString
		var evalCreated sql.NullTime

		if err := rows.Scan(
			&iv.ID, &iv.CandidateID, &questionsJSON, &iv.CurrentQuestionIndex, &status, &iv.CreatedAt, &completedAt,
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.JobRole, &c.ResumeText, &c.CreatedAt,
			&evalID, &overall, &technical, &behavioral,
			&strengths, &improvements, &recommendation, &evalCreated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interview record: %w", err)
		}

		if err := fillInterview(&iv, status, questionsJSON, completedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()

		record := &models.InterviewRecord{Interview: &iv, Candidate: &c}
		if evalID.Valid {
			record.Evaluation = &models.Evaluation{
				ID:               evalID.Int64,
				InterviewID:      iv.ID,
				OverallScore:     int(overall.Int64),
				TechnicalScore:   int(technical.Int64),
				BehavioralScore:  int(behavioral.Int64),
				Strengths:        strengths.String,
				ImprovementAreas: improvements.String,
				Recommendation:   models.Recommendation(recommendation.String),
				CreatedAt:        evalCreated.Time.UTC(),
			}
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanInterview(row scanner) (*models.Interview, error) {
	var iv models.Interview
	var status string
	var questionsJSON []byte
	var completedAt sql.NullTime

	if err := row.Scan(&iv.ID, &iv.CandidateID, &questionsJSON, &iv.CurrentQuestionIndex, &status, &iv.CreatedAt, &completedAt); err != nil {
		return nil, err
	}

	if err := fillInterview(&iv, status, questionsJSON, completedAt); err != nil {
		return nil, err
	}
	return &iv, nil
}

func fillInterview(iv *models.Interview, status string, questionsJSON []byte, completedAt sql.NullTime) error {
	iv.Status = models.InterviewStatus(status)
	iv.CreatedAt = iv.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		iv.CompletedAt = &t
	}
	if err := json.Unmarshal(questionsJSON, &iv.Questions); err != nil {
		return fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	return nil
}

// Answers

// CreateAnswer inserts an answer and assigns its id
func (r *PostgresRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	stampIfZero(&a.CreatedAt)

	query := `
		INSERT INTO answers (interview_id, question_index, question_text, answer_text, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query,
		a.InterviewID, a.QuestionIndex, a.QuestionText, a.AnswerText, a.Score, a.Feedback, a.CreatedAt,
	).Scan(&a.ID); err != nil {
		return fmt.Errorf("failed to create answer: %w", mapPgError(err))
	}

	return nil
}

// ListAnswersByInterview returns answers in insertion order
func (r *PostgresRepository) ListAnswersByInterview(ctx context.Context, interviewID int64) ([]*models.Answer, error) {
	query := `
		SELECT id, interview_id, question_index, question_text, answer_text, score, feedback, created_at
		FROM answers
		WHERE interview_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	answers := []*models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.InterviewID, &a.QuestionIndex, &a.QuestionText, &a.AnswerText, &a.Score, &a.Feedback, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		answers = append(answers, &a)
	}

	return answers, rows.Err()
}

// Evaluations

const evaluationColumns = `id, interview_id, overall_score, technical_score, behavioral_score, strengths, improvement_areas, recommendation, created_at`

// CreateEvaluation inserts the single evaluation of an interview
func (r *PostgresRepository) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	stampIfZero(&e.CreatedAt)

	query := `
		INSERT INTO evaluations (interview_id, overall_score, technical_score, behavioral_score, strengths, improvement_areas, recommendation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query,
		e.InterviewID,
		e.OverallScore,
		e.TechnicalScore,
		e.BehavioralScore,
		e.Strengths,
		e.ImprovementAreas,
		string(e.Recommendation),
		e.CreatedAt,
	).Scan(&e.ID); err != nil {
		return fmt.Errorf("failed to create evaluation: %w", mapPgError(err))
	}

	return nil
}

// GetEvaluationByInterview retrieves the evaluation of an interview
func (r *PostgresRepository) GetEvaluationByInterview(ctx context.Context, interviewID int64) (*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE interview_id = $1`

	e, err := scanEvaluation(r.pool.QueryRow(ctx, query, interviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	return e, nil
}

// ListEvaluations returns all evaluations ordered by id
func (r *PostgresRepository) ListEvaluations(ctx context.Context) ([]*models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	evaluations := []*models.Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, e)
	}

	return evaluations, rows.Err()
}

func scanEvaluation(row scanner) (*models.Evaluation, error) {
	var e models.Evaluation
	var recommendation string

	if err := row.Scan(
		&e.ID, &e.InterviewID, &e.OverallScore, &e.TechnicalScore, &e.BehavioralScore,
		&e.Strengths, &e.ImprovementAreas, &recommendation, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Recommendation = models.Recommendation(recommendation)
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// Users

// CreateUser inserts a user, rejecting duplicate emails
func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User) error {
	stampIfZero(&u.CreatedAt)

	query := `
		INSERT INTO users (email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt).Scan(&u.ID); err != nil {
		return fmt.Errorf("failed to create user: %w", mapPgError(err))
	}

	return nil
}

// GetUserByEmail retrieves a user by email
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, created_at FROM users WHERE email = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// ListUsers returns all users ordered by id
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, password_hash, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// Helper functions

// execOne runs a single-row statement and reports ErrNotFound when no row matched
func (r *PostgresRepository) execOne(ctx context.Context, entity string, id int64, query string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapPgError translates constraint violations into storage sentinels
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrDuplicate)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrNotFound)
		}
	}
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
