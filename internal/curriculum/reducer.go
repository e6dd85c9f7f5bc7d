package curriculum

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/coursehub/backend/internal/models"
)

var (
	// ErrUnknownAction is returned by Reduce for an action it does not understand
	ErrUnknownAction = errors.New("unknown curriculum action")
	// ErrSectionNotFound is returned when an action targets a missing section
	ErrSectionNotFound = errors.New("section not found")
	// ErrLessonNotFound is returned when an action targets a missing lesson
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrQuestionNotFound is returned when an action targets a missing quiz question
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound is returned when an action targets a missing quiz option
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidOrder is returned when a reorder request is not a permutation of the current items
	ErrInvalidOrder = errors.New("order must list every item exactly once")
)

// Reduce applies an action to a curriculum and returns the resulting curriculum.
//
// The input is never modified: the result is always a fresh copy. An action targeting a
// section or lesson that does not exist leaves the curriculum unchanged. Order indices of
// every list touched by an add, delete or reorder action are re-stamped to match positions.
// If gen is nil, random identifiers are generated.
func Reduce(state []models.Section, action Action, gen IDGenerator) ([]models.Section, error) {
	if gen == nil {
		gen = UUIDGenerator{}
	}

	switch a := action.(type) {
	case AddSection:
		next := cloneSections(state)
		next = append(next, models.Section{
			TempID:       gen.NewID(),
			Name:         a.Name,
			Description:  clonePtr(a.Description),
			SectionOrder: len(next),
			Lessons:      []models.Lesson{},
		})
		return next, nil

	case UpdateSection:
		next := cloneSections(state)
		if i := indexOfSection(next, a.Section); i >= 0 {
			next[i].Name = a.Name
			next[i].Description = clonePtr(a.Description)
		}
		return next, nil

	case DeleteSection:
		next := cloneSections(state)
		if i := indexOfSection(next, a.Section); i >= 0 {
			next = append(next[:i], next[i+1:]...)
			restampSections(next)
		}
		return next, nil

	case AddLesson:
		next := cloneSections(state)
		i := indexOfSection(next, a.Section)
		if i < 0 {
			return next, nil
		}
		lesson := prepareLesson(cloneLesson(a.Lesson), gen)
		lesson.LessonOrder = len(next[i].Lessons)
		next[i].Lessons = append(next[i].Lessons, lesson)
		return next, nil

	case UpdateLesson:
		next := cloneSections(state)
		i := indexOfSection(next, a.Section)
		if i < 0 {
			return next, nil
		}
		j := indexOfLesson(next[i].Lessons, RefOf(a.Lesson.ID, a.Lesson.TempID))
		if j < 0 {
			return next, nil
		}
		existing := next[i].Lessons[j]
		incoming := cloneLesson(a.Lesson)
		if incoming.ID == nil {
			incoming.ID = clonePtr(existing.ID)
		}
		if incoming.TempID == "" {
			incoming.TempID = existing.TempID
		}
		updated := prepareLesson(incoming, gen)
		// Order is owned by the list, never by the edit payload.
		updated.LessonOrder = existing.LessonOrder
		next[i].Lessons[j] = updated
		return next, nil

	case DeleteLesson:
		next := cloneSections(state)
		i := indexOfSection(next, a.Section)
		if i < 0 {
			return next, nil
		}
		if j := indexOfLesson(next[i].Lessons, a.Lesson); j >= 0 {
			next[i].Lessons = append(next[i].Lessons[:j], next[i].Lessons[j+1:]...)
			restampLessons(next[i].Lessons)
		}
		return next, nil

	case ReorderSections:
		next := cloneSections(a.Sections)
		restampSections(next)
		return next, nil

	case ReorderLessons:
		next := cloneSections(state)
		i := indexOfSection(next, a.Section)
		if i < 0 {
			return next, nil
		}
		lessons := make([]models.Lesson, len(a.Lessons))
		for k := range a.Lessons {
			lessons[k] = cloneLesson(a.Lessons[k])
		}
		restampLessons(lessons)
		next[i].Lessons = lessons
		return next, nil

	case SetCurriculum:
		next := cloneSections(a.Sections)
		for i := range next {
			hydrateSection(&next[i], gen)
		}
		return next, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}

// Hydrate assigns temporary identifiers to every entity of a curriculum that lacks one.
//
// An entity with a persisted ID gets the decimal form of that ID, other entities get a
// fresh identifier. Existing temporary identifiers are kept unchanged.
func Hydrate(sections []models.Section, gen IDGenerator) []models.Section {
	next, _ := Reduce(nil, SetCurriculum{Sections: sections}, gen)
	return next
}

func indexOfSection(sections []models.Section, ref Ref) int {
	return indexOf(sections, ref, func(s *models.Section) (*int64, string) { return s.ID, s.TempID })
}

func indexOfLesson(lessons []models.Lesson, ref Ref) int {
	return indexOf(lessons, ref, func(l *models.Lesson) (*int64, string) { return l.ID, l.TempID })
}

func indexOfQuestion(questions []models.QuizQuestion, ref Ref) int {
	return indexOf(questions, ref, func(q *models.QuizQuestion) (*int64, string) { return q.ID, q.TempID })
}

func indexOfOption(options []models.QuizOption, ref Ref) int {
	return indexOf(options, ref, func(o *models.QuizOption) (*int64, string) { return o.ID, o.TempID })
}

func restampSections(sections []models.Section) {
	for i := range sections {
		sections[i].SectionOrder = i
	}
}

func restampLessons(lessons []models.Lesson) {
	for i := range lessons {
		lessons[i].LessonOrder = i
	}
}

// ensureTempID returns the temporary identifier an entity should carry
func ensureTempID(id *int64, tempID string, gen IDGenerator) string {
	if tempID != "" {
		return tempID
	}
	if id != nil {
		return strconv.FormatInt(*id, 10)
	}
	return gen.NewID()
}

// prepareLesson gives a new or edited lesson identifiers, contiguous nested orders and
// a payload matching its type
func prepareLesson(lesson models.Lesson, gen IDGenerator) models.Lesson {
	lesson.TempID = ensureTempID(lesson.ID, lesson.TempID, gen)
	hydrateLessonChildren(&lesson, gen)
	for q := range lesson.Questions {
		lesson.Questions[q].QuestionOrder = q
		for o := range lesson.Questions[q].Options {
			lesson.Questions[q].Options[o].OptionOrder = o
		}
	}
	NormalizePayload(&lesson)
	return lesson
}

func hydrateSection(section *models.Section, gen IDGenerator) {
	section.TempID = ensureTempID(section.ID, section.TempID, gen)
	if section.Lessons == nil {
		section.Lessons = []models.Lesson{}
	}
	for i := range section.Lessons {
		lesson := &section.Lessons[i]
		lesson.TempID = ensureTempID(lesson.ID, lesson.TempID, gen)
		hydrateLessonChildren(lesson, gen)
	}
}

func hydrateLessonChildren(lesson *models.Lesson, gen IDGenerator) {
	for q := range lesson.Questions {
		question := &lesson.Questions[q]
		question.TempID = ensureTempID(question.ID, question.TempID, gen)
		if question.Options == nil {
			question.Options = []models.QuizOption{}
		}
		for o := range question.Options {
			option := &question.Options[o]
			option.TempID = ensureTempID(option.ID, option.TempID, gen)
		}
	}
	for a := range lesson.Attachments {
		attachment := &lesson.Attachments[a]
		attachment.TempID = ensureTempID(attachment.ID, attachment.TempID, gen)
	}
	for s := range lesson.Subtitles {
		subtitle := &lesson.Subtitles[s]
		subtitle.TempID = ensureTempID(subtitle.ID, subtitle.TempID, gen)
	}
}
