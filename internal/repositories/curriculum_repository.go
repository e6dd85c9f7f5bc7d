package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/models"
)

type curriculumRepository struct {
	db *sql.DB
}

// NewCurriculumRepository creates a new curriculum repository
func NewCurriculumRepository(db *sql.DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

const courseScope = `JOIN curriculum_sections s ON s.id = l.section_id WHERE s.course_id = ?`

// GetTree loads the saved curriculum of a course, every level sorted by its order column.
//
// Temporary identifiers are left empty.
func (r *curriculumRepository) GetTree(ctx context.Context, courseID int) ([]models.Section, error) {
	sections, err := r.getSections(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := r.getLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	questions, err := r.getQuestions(ctx, courseID)
	if err != nil {
		return nil, err
	}
	options, err := r.getOptions(ctx, courseID)
	if err != nil {
		return nil, err
	}
	attachments, err := r.getAttachments(ctx, courseID)
	if err != nil {
		return nil, err
	}
	subtitles, err := r.getSubtitles(ctx, courseID)
	if err != nil {
		return nil, err
	}

	for i := range questions {
		q := &questions[i].value
		q.Options = options[*q.ID]
		if q.Options == nil {
			q.Options = []models.QuizOption{}
		}
	}
	questionsByLesson := groupByParent(questions)

	for i := range lessons {
		l := &lessons[i].value
		l.Questions = questionsByLesson[*l.ID]
		l.Attachments = attachments[*l.ID]
		l.Subtitles = subtitles[*l.ID]
		curriculum.NormalizePayload(l)
	}
	lessonsBySection := groupByParent(lessons)

	for i := range sections {
		sections[i].Lessons = lessonsBySection[*sections[i].ID]
		if sections[i].Lessons == nil {
			sections[i].Lessons = []models.Lesson{}
		}
	}

	return sections, nil
}

// child is a row together with the ID of its parent row
type child[T any] struct {
	parentID int64
	value    T
}

func groupByParent[T any](rows []child[T]) map[int64][]T {
	grouped := make(map[int64][]T)
	for _, row := range rows {
		grouped[row.parentID] = append(grouped[row.parentID], row.value)
	}
	return grouped
}

func (r *curriculumRepository) getSections(ctx context.Context, courseID int) ([]models.Section, error) {
	query := `
		SELECT id, section_name, description, section_order
		FROM curriculum_sections
		WHERE course_id = ?
		ORDER BY section_order, id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	sections := []models.Section{}
	for rows.Next() {
		var (
			s           models.Section
			id          int64
			description sql.NullString
		)
		if err := rows.Scan(&id, &s.Name, &description, &s.SectionOrder); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		s.ID = &id
		s.Description = stringPtr(description)
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sections, nil
}

func (r *curriculumRepository) getLessons(ctx context.Context, courseID int) ([]child[models.Lesson], error) {
	query := `
		SELECT l.id, l.section_id, l.lesson_name, l.description, l.lesson_order, l.lesson_type,
			l.video_url, l.video_duration, l.text_content, l.is_free
		FROM curriculum_lessons l
		` + courseScope + `
		ORDER BY l.section_id, l.lesson_order, l.id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []child[models.Lesson]
	for rows.Next() {
		var (
			row                                child[models.Lesson]
			id                                 int64
			description, videoURL, textContent sql.NullString
			videoDuration                      sql.NullInt64
		)
		l := &row.value
		if err := rows.Scan(&id, &row.parentID, &l.Name, &description, &l.LessonOrder, &l.LessonType,
			&videoURL, &videoDuration, &textContent, &l.IsFree); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		l.ID = &id
		l.Description = stringPtr(description)
		l.VideoURL = stringPtr(videoURL)
		l.TextContent = stringPtr(textContent)
		if videoDuration.Valid {
			d := int(videoDuration.Int64)
			l.VideoDuration = &d
		}
		lessons = append(lessons, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return lessons, nil
}

func (r *curriculumRepository) getQuestions(ctx context.Context, courseID int) ([]child[models.QuizQuestion], error) {
	query := `
		SELECT q.id, q.lesson_id, q.question_text, q.explanation, q.question_order
		FROM quiz_questions q
		JOIN curriculum_lessons l ON l.id = q.lesson_id
		` + courseScope + `
		ORDER BY q.lesson_id, q.question_order, q.id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz questions: %w", err)
	}
	defer rows.Close()

	var questions []child[models.QuizQuestion]
	for rows.Next() {
		var (
			row         child[models.QuizQuestion]
			id          int64
			explanation sql.NullString
		)
		q := &row.value
		if err := rows.Scan(&id, &row.parentID, &q.QuestionText, &explanation, &q.QuestionOrder); err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		q.ID = &id
		q.Explanation = stringPtr(explanation)
		questions = append(questions, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return questions, nil
}

func (r *curriculumRepository) getOptions(ctx context.Context, courseID int) (map[int64][]models.QuizOption, error) {
	query := `
		SELECT o.id, o.question_id, o.option_text, o.is_correct, o.option_order
		FROM quiz_options o
		JOIN quiz_questions q ON q.id = o.question_id
		JOIN curriculum_lessons l ON l.id = q.lesson_id
		` + courseScope + `
		ORDER BY o.question_id, o.option_order, o.id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz options: %w", err)
	}
	defer rows.Close()

	options := make(map[int64][]models.QuizOption)
	for rows.Next() {
		var (
			o              models.QuizOption
			id, questionID int64
		)
		if err := rows.Scan(&id, &questionID, &o.OptionText, &o.IsCorrect, &o.OptionOrder); err != nil {
			return nil, fmt.Errorf("failed to scan quiz option: %w", err)
		}
		o.ID = &id
		options[questionID] = append(options[questionID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return options, nil
}

func (r *curriculumRepository) getAttachments(ctx context.Context, courseID int) (map[int64][]models.Attachment, error) {
	query := `
		SELECT a.id, a.lesson_id, a.file_name, a.file_url, a.file_type, a.file_size
		FROM lesson_attachments a
		JOIN curriculum_lessons l ON l.id = a.lesson_id
		` + courseScope + `
		ORDER BY a.lesson_id, a.id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson attachments: %w", err)
	}
	defer rows.Close()

	attachments := make(map[int64][]models.Attachment)
	for rows.Next() {
		var (
			a            models.Attachment
			id, lessonID int64
		)
		if err := rows.Scan(&id, &lessonID, &a.FileName, &a.FileURL, &a.FileType, &a.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan lesson attachment: %w", err)
		}
		a.ID = &id
		attachments[lessonID] = append(attachments[lessonID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return attachments, nil
}

func (r *curriculumRepository) getSubtitles(ctx context.Context, courseID int) (map[int64][]models.Subtitle, error) {
	query := `
		SELECT t.id, t.lesson_id, t.language_code, t.subtitle_url, t.is_default
		FROM lesson_subtitles t
		JOIN curriculum_lessons l ON l.id = t.lesson_id
		` + courseScope + `
		ORDER BY t.lesson_id, t.id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson subtitles: %w", err)
	}
	defer rows.Close()

	subtitles := make(map[int64][]models.Subtitle)
	for rows.Next() {
		var (
			t            models.Subtitle
			id, lessonID int64
		)
		if err := rows.Scan(&id, &lessonID, &t.LanguageCode, &t.SubtitleURL, &t.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan lesson subtitle: %w", err)
		}
		t.ID = &id
		subtitles[lessonID] = append(subtitles[lessonID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return subtitles, nil
}

// curriculumTables lists the curriculum tables, children before parents
var curriculumTables = []struct {
	kind  string
	table string
}{
	{kind: "option", table: "quiz_options"},
	{kind: "question", table: "quiz_questions"},
	{kind: "attachment", table: "lesson_attachments"},
	{kind: "subtitle", table: "lesson_subtitles"},
	{kind: "lesson", table: "curriculum_lessons"},
	{kind: "section", table: "curriculum_sections"},
}

const existingIDsQuery = `
	SELECT 'section', s.id FROM curriculum_sections s WHERE s.course_id = ?
	UNION ALL
	SELECT 'lesson', l.id FROM curriculum_lessons l ` + courseScope + `
	UNION ALL
	SELECT 'question', q.id FROM quiz_questions q JOIN curriculum_lessons l ON l.id = q.lesson_id ` + courseScope + `
	UNION ALL
	SELECT 'option', o.id FROM quiz_options o JOIN quiz_questions q ON q.id = o.question_id
		JOIN curriculum_lessons l ON l.id = q.lesson_id ` + courseScope + `
	UNION ALL
	SELECT 'attachment', a.id FROM lesson_attachments a JOIN curriculum_lessons l ON l.id = a.lesson_id ` + courseScope + `
	UNION ALL
	SELECT 'subtitle', t.id FROM lesson_subtitles t JOIN curriculum_lessons l ON l.id = t.lesson_id ` + courseScope

// SaveTree replaces the saved curriculum of a course with the given tree in a single transaction.
//
// Entities whose persisted ID belongs to the course are updated, the others are inserted and
// receive their new ID. Rows missing from the tree are deleted. Order columns are written from
// list positions. The returned tree carries the persisted IDs and keeps every temporary ID.
func (r *curriculumRepository) SaveTree(ctx context.Context, courseID int, sections []models.Section) ([]models.Section, error) {
	tree := curriculum.Clone(sections)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked int
	err = tx.QueryRowContext(ctx, "SELECT id FROM courses WHERE id = ? FOR UPDATE", courseID).Scan(&locked)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock course: %w", err)
	}

	w := &treeWriter{ctx: ctx, tx: tx, existing: map[string]map[int64]bool{}, kept: map[string]map[int64]bool{}}
	for _, t := range curriculumTables {
		w.existing[t.kind] = map[int64]bool{}
		w.kept[t.kind] = map[int64]bool{}
	}
	if err := w.loadExisting(courseID); err != nil {
		return nil, err
	}

	for i := range tree {
		if err := w.writeSection(courseID, i, &tree[i]); err != nil {
			return nil, err
		}
	}

	for _, t := range curriculumTables {
		if err := w.deleteStale(t.kind, t.table); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return tree, nil
}

// treeWriter reconciles a curriculum tree with the rows of one course inside a transaction
type treeWriter struct {
	ctx      context.Context
	tx       *sql.Tx
	existing map[string]map[int64]bool
	kept     map[string]map[int64]bool
}

func (w *treeWriter) loadExisting(courseID int) error {
	args := make([]any, 6)
	for i := range args {
		args[i] = courseID
	}
	rows, err := w.tx.QueryContext(w.ctx, existingIDsQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to query existing curriculum: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var id int64
		if err := rows.Scan(&kind, &id); err != nil {
			return fmt.Errorf("failed to scan existing curriculum: %w", err)
		}
		if ids, ok := w.existing[kind]; ok {
			ids[id] = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

// save updates the row of an entity owned by the course or inserts a new one and stores its ID
func (w *treeWriter) save(kind string, id **int64, insertQuery string, insertArgs []any, updateQuery string, updateArgs []any) error {
	if *id != nil && w.existing[kind][**id] {
		if _, err := w.tx.ExecContext(w.ctx, updateQuery, append(updateArgs, **id)...); err != nil {
			return fmt.Errorf("failed to update %s: %w", kind, err)
		}
		w.kept[kind][**id] = true
		return nil
	}

	result, err := w.tx.ExecContext(w.ctx, insertQuery, insertArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	*id = &newID
	w.kept[kind][newID] = true
	return nil
}

func (w *treeWriter) writeSection(courseID, order int, s *models.Section) error {
	s.SectionOrder = order
	err := w.save("section", &s.ID,
		`INSERT INTO curriculum_sections (course_id, section_name, description, section_order) VALUES (?, ?, ?, ?)`,
		[]any{courseID, s.Name, s.Description, order},
		`UPDATE curriculum_sections SET section_name = ?, description = ?, section_order = ? WHERE id = ?`,
		[]any{s.Name, s.Description, order},
	)
	if err != nil {
		return err
	}

	for j := range s.Lessons {
		if err := w.writeLesson(*s.ID, j, &s.Lessons[j]); err != nil {
			return err
		}
	}
	return nil
}

func (w *treeWriter) writeLesson(sectionID int64, order int, l *models.Lesson) error {
	l.LessonOrder = order
	fields := []any{l.Name, l.Description, order, l.LessonType, l.VideoURL, l.VideoDuration, l.TextContent, l.IsFree}
	err := w.save("lesson", &l.ID,
		`INSERT INTO curriculum_lessons (section_id, lesson_name, description, lesson_order, lesson_type, video_url, video_duration, text_content, is_free) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{sectionID}, fields...),
		`UPDATE curriculum_lessons SET section_id = ?, lesson_name = ?, description = ?, lesson_order = ?, lesson_type = ?, video_url = ?, video_duration = ?, text_content = ?, is_free = ? WHERE id = ?`,
		append([]any{sectionID}, fields...),
	)
	if err != nil {
		return err
	}

	for q := range l.Questions {
		if err := w.writeQuestion(*l.ID, q, &l.Questions[q]); err != nil {
			return err
		}
	}
	for a := range l.Attachments {
		att := &l.Attachments[a]
		err := w.save("attachment", &att.ID,
			`INSERT INTO lesson_attachments (lesson_id, file_name, file_url, file_type, file_size) VALUES (?, ?, ?, ?, ?)`,
			[]any{*l.ID, att.FileName, att.FileURL, att.FileType, att.FileSize},
			`UPDATE lesson_attachments SET lesson_id = ?, file_name = ?, file_url = ?, file_type = ?, file_size = ? WHERE id = ?`,
			[]any{*l.ID, att.FileName, att.FileURL, att.FileType, att.FileSize},
		)
		if err != nil {
			return err
		}
	}
	for t := range l.Subtitles {
		sub := &l.Subtitles[t]
		err := w.save("subtitle", &sub.ID,
			`INSERT INTO lesson_subtitles (lesson_id, language_code, subtitle_url, is_default) VALUES (?, ?, ?, ?)`,
			[]any{*l.ID, sub.LanguageCode, sub.SubtitleURL, sub.IsDefault},
			`UPDATE lesson_subtitles SET lesson_id = ?, language_code = ?, subtitle_url = ?, is_default = ? WHERE id = ?`,
			[]any{*l.ID, sub.LanguageCode, sub.SubtitleURL, sub.IsDefault},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *treeWriter) writeQuestion(lessonID int64, order int, q *models.QuizQuestion) error {
	q.QuestionOrder = order
	err := w.save("question", &q.ID,
		`INSERT INTO quiz_questions (lesson_id, question_text, explanation, question_order) VALUES (?, ?, ?, ?)`,
		[]any{lessonID, q.QuestionText, q.Explanation, order},
		`UPDATE quiz_questions SET lesson_id = ?, question_text = ?, explanation = ?, question_order = ? WHERE id = ?`,
		[]any{lessonID, q.QuestionText, q.Explanation, order},
	)
	if err != nil {
		return err
	}

	for o := range q.Options {
		opt := &q.Options[o]
		opt.OptionOrder = o
		err := w.save("option", &opt.ID,
			`INSERT INTO quiz_options (question_id, option_text, is_correct, option_order) VALUES (?, ?, ?, ?)`,
			[]any{*q.ID, opt.OptionText, opt.IsCorrect, o},
			`UPDATE quiz_options SET question_id = ?, option_text = ?, is_correct = ?, option_order = ? WHERE id = ?`,
			[]any{*q.ID, opt.OptionText, opt.IsCorrect, o},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// deleteStale removes the rows of a kind that the saved tree no longer contains
func (w *treeWriter) deleteStale(kind, table string) error {
	var stale []int64
	for id := range w.existing[kind] {
		if !w.kept[kind][id] {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	slices.Sort(stale)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(stale)), ", ")
	args := make([]any, len(stale))
	for i, id := range stale {
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, placeholders)
	if _, err := w.tx.ExecContext(w.ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete stale %s rows: %w", kind, err)
	}
	return nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
