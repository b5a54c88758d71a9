package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"questionnaire/internal/domains"
	"questionnaire/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TemplateProvider struct {
	db      *pgxpool.Pool
	tracked *snapshotCache
}

func NewTemplateProvider(pg *pgxpool.Pool, cacheSize int) (*TemplateProvider, error) {
	cache, err := newSnapshotCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &TemplateProvider{
		db:      pg,
		tracked: cache,
	}, nil
}

// FindTemplate reads a full template tree straight from the database,
// bypassing the tracked snapshot cache.
func (s *TemplateProvider) FindTemplate(ctx context.Context, name string, version int) (domains.Template, error) {
	return loadTemplate(ctx, s.db, name, version)
}

// FindTemplateByDigest returns the earliest version of name produced by the
// request identified by digest.
func (s *TemplateProvider) FindTemplateByDigest(ctx context.Context, name, digest string) (domains.Template, error) {
	var version int
	err := s.db.QueryRow(ctx, `
		SELECT version
		FROM templates
		WHERE name = $1 AND edit_digest = $2
		ORDER BY version
		LIMIT 1`,
		name, digest,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domains.Template{}, fmt.Errorf("find template %q by digest: %w", name, storage.ErrNotFound)
		}
		return domains.Template{}, fmt.Errorf("find template by digest: %w", err)
	}
	return loadTemplate(ctx, s.db, name, version)
}

// GetTemplate serves reads from the tracked snapshot cache. A version of 0
// resolves to the latest persisted version.
func (s *TemplateProvider) GetTemplate(ctx context.Context, name string, version int) (domains.Template, error) {
	if version <= 0 {
		latest, err := s.LatestTemplateVersion(ctx, name)
		if err != nil {
			return domains.Template{}, err
		}
		if latest == 0 {
			return domains.Template{}, fmt.Errorf("get template %q: %w", name, storage.ErrNotFound)
		}
		version = latest
	}

	if t, ok := s.tracked.get(name, version); ok {
		return t, nil
	}
	t, err := loadTemplate(ctx, s.db, name, version)
	if err != nil {
		return domains.Template{}, err
	}
	s.tracked.add(t)
	return t, nil
}

func (s *TemplateProvider) ResetTracked() {
	s.tracked.purge()
}

func (s *TemplateProvider) LatestTemplateVersion(ctx context.Context, name string) (int, error) {
	return latestVersion(ctx, s.db, `SELECT COALESCE(MAX(version), 0) FROM templates WHERE name = $1`, name)
}

func (s *TemplateProvider) LatestQuestionVersion(ctx context.Context, name string) (int, error) {
	return latestVersion(ctx, s.db, `SELECT COALESCE(MAX(version), 0) FROM template_questions WHERE name = $1`, name)
}

func (s *TemplateProvider) LatestOptionVersion(ctx context.Context, name string) (int, error) {
	return latestVersion(ctx, s.db, `SELECT COALESCE(MAX(version), 0) FROM template_options WHERE name = $1`, name)
}

// FindQuestion reads one persisted question version with its options.
func (s *TemplateProvider) FindQuestion(ctx context.Context, name string, version int) (domains.Question, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			name, version, section_id, sort_order, question_type,
			question_text, is_required, trait_key, ws, media_url
		FROM template_questions
		WHERE name = $1 AND version = $2`,
		name, version,
	)
	if err != nil {
		return domains.Question{}, fmt.Errorf("get question: %w", err)
	}
	q, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domains.Question])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domains.Question{}, fmt.Errorf("get question %s@%d: %w", name, version, storage.ErrNotFound)
		}
		return domains.Question{}, fmt.Errorf("get question: %w", err)
	}

	rows, err = s.db.Query(ctx, `
		SELECT
			name, version, question_name, question_version, sort_order,
			label, media_url, is_correct, score, weight, wa
		FROM template_options
		WHERE question_name = $1 AND question_version = $2
		ORDER BY position`,
		name, version,
	)
	if err != nil {
		return domains.Question{}, fmt.Errorf("list question options: %w", err)
	}
	q.Options, err = pgx.CollectRows(rows, pgx.RowToStructByName[domains.Option])
	if err != nil {
		return domains.Question{}, fmt.Errorf("collect question options: %w", err)
	}
	return q, nil
}

func (s *TemplateProvider) OptionNameV1Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM template_options WHERE name = $1 AND version = 1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check option name: %w", err)
	}
	return exists, nil
}

// SaveTemplate inserts the template with all its sections, questions and
// options in a single transaction.
func (s *TemplateProvider) SaveTemplate(ctx context.Context, t domains.Template) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO templates (
			name, version, title, description, template_type, status,
			time_limit_seconds, published_at, created_at, updated_at, edit_digest
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.Name,
		t.Version,
		t.Title,
		t.Description,
		string(t.TemplateType),
		string(t.Status),
		t.TimeLimitSeconds,
		t.PublishedAt,
		t.CreatedAt,
		t.UpdatedAt,
		t.EditDigest,
	); err != nil {
		return writeError("insert template", err)
	}

	const insertSection = `
		INSERT INTO template_sections (
			id, template_name, template_version, position, sort_order, title, description
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`

	const insertQuestion = `
		INSERT INTO template_questions (
			name, version, section_id, position, sort_order, question_type,
			question_text, is_required, trait_key, ws, media_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	const insertOption = `
		INSERT INTO template_options (
			name, version, question_name, question_version, position, sort_order,
			label, media_url, is_correct, score, weight, wa
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	for si, section := range t.Sections {
		if _, err := tx.Exec(ctx, insertSection,
			section.ID,
			t.Name,
			t.Version,
			si,
			section.Order,
			section.Title,
			section.Description,
		); err != nil {
			return writeError("insert section", err)
		}

		for qi, q := range section.Questions {
			if _, err := tx.Exec(ctx, insertQuestion,
				q.Name,
				q.Version,
				section.ID,
				qi,
				q.Order,
				string(q.QuestionType),
				q.QuestionText,
				q.IsRequired,
				q.TraitKey,
				q.Ws,
				q.MediaURL,
			); err != nil {
				return writeError("insert question", err)
			}

			for oi, o := range q.Options {
				if _, err := tx.Exec(ctx, insertOption,
					o.Name,
					o.Version,
					q.Name,
					q.Version,
					oi,
					o.Order,
					o.Label,
					o.MediaURL,
					o.IsCorrect,
					o.Score,
					o.Weight,
					o.Wa,
				); err != nil {
					return writeError("insert option", err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return writeError("commit", err)
	}
	return nil
}

func (s *TemplateProvider) ListTemplates(ctx context.Context) ([]domains.TemplateSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (name)
			name, version, title, template_type, status, updated_at
		FROM templates
		ORDER BY name, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templates, err := pgx.CollectRows(rows, pgx.RowToStructByName[domains.TemplateSummary])
	if err != nil {
		return nil, fmt.Errorf("collect templates: %w", err)
	}
	return templates, nil
}

// PublishTemplate is the only write touching an existing row; it moves the
// status to Published and stamps published_at.
func (s *TemplateProvider) PublishTemplate(ctx context.Context, name string, version int, at time.Time) (domains.Template, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE templates
		SET status = $1, published_at = COALESCE(published_at, $2), updated_at = $2
		WHERE name = $3 AND version = $4`,
		string(domains.StatusPublished), at, name, version,
	)
	if err != nil {
		return domains.Template{}, fmt.Errorf("publish template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domains.Template{}, fmt.Errorf("publish template %s@%d: %w", name, version, storage.ErrNotFound)
	}

	s.tracked.remove(name, version)
	return loadTemplate(ctx, s.db, name, version)
}

func loadTemplate(ctx context.Context, q querier, name string, version int) (domains.Template, error) {
	rows, err := q.Query(ctx, `
		SELECT
			name, version, title, description, template_type, status,
			time_limit_seconds, published_at, created_at, updated_at, edit_digest
		FROM templates
		WHERE name = $1 AND version = $2`,
		name, version,
	)
	if err != nil {
		return domains.Template{}, fmt.Errorf("get template: %w", err)
	}
	t, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domains.Template])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domains.Template{}, fmt.Errorf("get template %s@%d: %w", name, version, storage.ErrNotFound)
		}
		return domains.Template{}, fmt.Errorf("get template: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, template_name, template_version, sort_order, title, description
		FROM template_sections
		WHERE template_name = $1 AND template_version = $2
		ORDER BY position`,
		name, version,
	)
	if err != nil {
		return domains.Template{}, fmt.Errorf("list sections: %w", err)
	}
	sections, err := pgx.CollectRows(rows, pgx.RowToStructByName[domains.Section])
	if err != nil {
		return domains.Template{}, fmt.Errorf("collect sections: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT
			q.name, q.version, q.section_id, q.sort_order, q.question_type,
			q.question_text, q.is_required, q.trait_key, q.ws, q.media_url
		FROM template_questions q
		JOIN template_sections s ON s.id = q.section_id
		WHERE s.template_name = $1 AND s.template_version = $2
		ORDER BY s.position, q.position`,
		name, version,
	)
	if err != nil {
		return domains.Template{}, fmt.Errorf("list questions: %w", err)
	}
	questions, err := pgx.CollectRows(rows, pgx.RowToStructByName[domains.Question])
	if err != nil {
		return domains.Template{}, fmt.Errorf("collect questions: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT
			o.name, o.version, o.question_name, o.question_version, o.sort_order,
			o.label, o.media_url, o.is_correct, o.score, o.weight, o.wa
		FROM template_options o
		JOIN template_questions q ON q.name = o.question_name AND q.version = o.question_version
		JOIN template_sections s ON s.id = q.section_id
		WHERE s.template_name = $1 AND s.template_version = $2
		ORDER BY s.position, q.position, o.position`,
		name, version,
	)
	if err != nil {
		return domains.Template{}, fmt.Errorf("list options: %w", err)
	}
	options, err := pgx.CollectRows(rows, pgx.RowToStructByName[domains.Option])
	if err != nil {
		return domains.Template{}, fmt.Errorf("collect options: %w", err)
	}

	t.Sections = assembleTree(sections, questions, options)
	return t, nil
}

// assembleTree nests flat rows, which arrive already in display order.
func assembleTree(sections []domains.Section, questions []domains.Question, options []domains.Option) []domains.Section {
	type questionKey struct {
		name    string
		version int
	}
	optionsByQuestion := make(map[questionKey][]domains.Option, len(questions))
	for _, o := range options {
		k := questionKey{o.QuestionName, o.QuestionVersion}
		optionsByQuestion[k] = append(optionsByQuestion[k], o)
	}

	questionsBySection := make(map[string][]domains.Question, len(sections))
	for _, q := range questions {
		q.Options = optionsByQuestion[questionKey{q.Name, q.Version}]
		if q.Options == nil {
			q.Options = []domains.Option{}
		}
		questionsBySection[q.SectionID] = append(questionsBySection[q.SectionID], q)
	}

	for i := range sections {
		sections[i].Questions = questionsBySection[sections[i].ID]
		if sections[i].Questions == nil {
			sections[i].Questions = []domains.Question{}
		}
	}
	return sections
}

func latestVersion(ctx context.Context, q querier, query, name string) (int, error) {
	var version int
	if err := q.QueryRow(ctx, query, name).Scan(&version); err != nil {
		return 0, fmt.Errorf("latest version of %q: %w", name, err)
	}
	return version, nil
}

func writeError(op string, err error) error {
	if constraint, ok := storage.UniqueViolation(err); ok {
		return fmt.Errorf("%s: %w (%s)", op, storage.ErrConflict, constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}
