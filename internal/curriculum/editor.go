package curriculum

import (
	"errors"
	"sync"

	"github.com/coursehub/backend/internal/models"
)

// ErrInvalidLessonType is returned when a lesson carries an unknown type
var ErrInvalidLessonType = errors.New("invalid lesson type")

// Editor is a stateful curriculum holder exposing one method per action.
//
// Every method applies its change atomically through Reduce. Targets are checked first, so a
// method either returns an error and leaves the state untouched, or succeeds and emits a notice.
// Notices never influence the state. Editor is safe for concurrent use.
type Editor struct {
	mu       sync.Mutex
	sections []models.Section
	gen      IDGenerator
	notifier Notifier
}

// NewEditor creates an editor over a copy of the given curriculum.
//
// gen and notifier may be nil.
func NewEditor(sections []models.Section, gen IDGenerator, notifier Notifier) *Editor {
	if gen == nil {
		gen = UUIDGenerator{}
	}
	return &Editor{
		sections: cloneSections(sections),
		gen:      gen,
		notifier: notifier,
	}
}

// Sections returns a copy of the current curriculum
func (e *Editor) Sections() []models.Section {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneSections(e.sections)
}

// Section returns a copy of the referenced section
func (e *Editor) Section(ref Ref) (models.Section, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOfSection(e.sections, ref)
	if i < 0 {
		return models.Section{}, false
	}
	return cloneSection(e.sections[i]), true
}

// Lesson returns a copy of the referenced lesson
func (e *Editor) Lesson(sectionRef, lessonRef Ref) (models.Lesson, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, j, err := e.locateLesson(sectionRef, lessonRef)
	if err != nil {
		return models.Lesson{}, false
	}
	return cloneLesson(e.sections[i].Lessons[j]), true
}

// Dispatch checks and applies an arbitrary action
func (e *Editor) Dispatch(action Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(action); err != nil {
		return err
	}
	return e.apply(e.canonical(action))
}

// SetCurriculum replaces the whole curriculum, hydrating temporary identifiers
func (e *Editor) SetCurriculum(sections []models.Section) error {
	return e.Dispatch(SetCurriculum{Sections: sections})
}

// AddSection appends a section and returns it
func (e *Editor) AddSection(name string, description *string) (models.Section, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.apply(AddSection{Name: name, Description: description}); err != nil {
		return models.Section{}, err
	}
	return cloneSection(e.sections[len(e.sections)-1]), nil
}

// UpdateSection replaces the name and description of a section
func (e *Editor) UpdateSection(ref Ref, name string, description *string) error {
	return e.Dispatch(UpdateSection{Section: ref, Name: name, Description: description})
}

// DeleteSection removes a section and its lessons
func (e *Editor) DeleteSection(ref Ref) error {
	return e.Dispatch(DeleteSection{Section: ref})
}

// AddLesson appends a lesson to a section and returns it
func (e *Editor) AddLesson(sectionRef Ref, lesson models.Lesson) (models.Lesson, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	action := AddLesson{Section: sectionRef, Lesson: lesson}
	if err := e.check(action); err != nil {
		return models.Lesson{}, err
	}
	if err := e.apply(e.canonical(action)); err != nil {
		return models.Lesson{}, err
	}
	lessons := e.sections[indexOfSection(e.sections, sectionRef)].Lessons
	return cloneLesson(lessons[len(lessons)-1]), nil
}

// UpdateLesson replaces the referenced lesson with the given content.
//
// The lesson keeps its identifiers and its position.
func (e *Editor) UpdateLesson(sectionRef, lessonRef Ref, lesson models.Lesson) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, j, err := e.locateLesson(sectionRef, lessonRef)
	if err != nil {
		return err
	}
	existing := e.sections[i].Lessons[j]
	lesson.ID = clonePtr(existing.ID)
	lesson.TempID = existing.TempID

	action := UpdateLesson{Section: sectionRef, Lesson: lesson}
	if err := e.check(action); err != nil {
		return err
	}
	return e.apply(action)
}

// DeleteLesson removes a lesson from a section
func (e *Editor) DeleteLesson(sectionRef, lessonRef Ref) error {
	return e.Dispatch(DeleteLesson{Section: sectionRef, Lesson: lessonRef})
}

// ReorderSections reorders the sections to follow the given references
func (e *Editor) ReorderSections(order []Ref) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	reordered, err := permute(e.sections, order, indexOfSection)
	if err != nil {
		return err
	}
	return e.apply(ReorderSections{Sections: reordered})
}

// ReorderLessons reorders the lessons of a section to follow the given references
func (e *Editor) ReorderLessons(sectionRef Ref, order []Ref) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := indexOfSection(e.sections, sectionRef)
	if i < 0 {
		return ErrSectionNotFound
	}
	reordered, err := permute(e.sections[i].Lessons, order, indexOfLesson)
	if err != nil {
		return err
	}
	return e.apply(ReorderLessons{Section: sectionRef, Lessons: reordered})
}

// SetCorrectOption marks one option of a quiz question as the only correct answer
func (e *Editor) SetCorrectOption(sectionRef, lessonRef, questionRef, optionRef Ref) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, j, err := e.locateLesson(sectionRef, lessonRef)
	if err != nil {
		return err
	}
	lesson := cloneLesson(e.sections[i].Lessons[j])
	q := indexOfQuestion(lesson.Questions, questionRef)
	if q < 0 {
		return ErrQuestionNotFound
	}
	if err := MarkCorrectOption(&lesson.Questions[q], optionRef); err != nil {
		return err
	}
	return e.apply(UpdateLesson{Section: sectionRef, Lesson: lesson})
}

func (e *Editor) locateLesson(sectionRef, lessonRef Ref) (int, int, error) {
	i := indexOfSection(e.sections, sectionRef)
	if i < 0 {
		return -1, -1, ErrSectionNotFound
	}
	j := indexOfLesson(e.sections[i].Lessons, lessonRef)
	if j < 0 {
		return -1, -1, ErrLessonNotFound
	}
	return i, j, nil
}

// check verifies that the targets of an action exist; callers hold e.mu
func (e *Editor) check(action Action) error {
	switch a := action.(type) {
	case UpdateSection:
		if indexOfSection(e.sections, a.Section) < 0 {
			return ErrSectionNotFound
		}
	case DeleteSection:
		if indexOfSection(e.sections, a.Section) < 0 {
			return ErrSectionNotFound
		}
	case AddLesson:
		if indexOfSection(e.sections, a.Section) < 0 {
			return ErrSectionNotFound
		}
		if !IsValidLessonType(a.Lesson.LessonType) {
			return ErrInvalidLessonType
		}
	case UpdateLesson:
		if _, _, err := e.locateLesson(a.Section, RefOf(a.Lesson.ID, a.Lesson.TempID)); err != nil {
			return err
		}
		if !IsValidLessonType(a.Lesson.LessonType) {
			return ErrInvalidLessonType
		}
	case DeleteLesson:
		if _, _, err := e.locateLesson(a.Section, a.Lesson); err != nil {
			return err
		}
	case ReorderSections:
		if !isPermutation(e.sections, a.Sections, indexOfSection, func(s *models.Section) Ref { return RefOf(s.ID, s.TempID) }) {
			return ErrInvalidOrder
		}
	case ReorderLessons:
		i := indexOfSection(e.sections, a.Section)
		if i < 0 {
			return ErrSectionNotFound
		}
		if !isPermutation(e.sections[i].Lessons, a.Lessons, indexOfLesson, func(l *models.Lesson) Ref { return RefOf(l.ID, l.TempID) }) {
			return ErrInvalidOrder
		}
	}
	return nil
}

// canonical rewrites an action whose targets were checked so that it cannot smuggle
// identities into the curriculum; callers hold e.mu
func (e *Editor) canonical(action Action) Action {
	switch a := action.(type) {
	case AddLesson:
		a.Lesson = detachLesson(a.Lesson, collectTempIDs(e.sections))
		return a
	case ReorderSections:
		// A checked reorder only decides positions; the entities stay the current ones.
		reordered, _ := permute(e.sections, refsOf(a.Sections, func(s *models.Section) Ref { return RefOf(s.ID, s.TempID) }), indexOfSection)
		return ReorderSections{Sections: reordered}
	case ReorderLessons:
		i := indexOfSection(e.sections, a.Section)
		reordered, _ := permute(e.sections[i].Lessons, refsOf(a.Lessons, func(l *models.Lesson) Ref { return RefOf(l.ID, l.TempID) }), indexOfLesson)
		return ReorderLessons{Section: a.Section, Lessons: reordered}
	}
	return action
}

// apply runs the reducer and publishes the notice; callers hold e.mu
func (e *Editor) apply(action Action) error {
	next, err := Reduce(e.sections, action, e.gen)
	if err != nil {
		return err
	}
	e.sections = next
	if e.notifier != nil {
		e.notifier.Notify(noticeFor(action))
	}
	return nil
}

// permute returns the items in the order given by refs, which must list every item exactly once
func permute[T any](items []T, order []Ref, index func([]T, Ref) int) ([]T, error) {
	if len(order) != len(items) {
		return nil, ErrInvalidOrder
	}
	used := make([]bool, len(items))
	out := make([]T, 0, len(items))
	for _, ref := range order {
		i := index(items, ref)
		if i < 0 || used[i] {
			return nil, ErrInvalidOrder
		}
		used[i] = true
		out = append(out, items[i])
	}
	return out, nil
}

// isPermutation reports whether candidate holds exactly the entities of current, in any order
func isPermutation[T any](current, candidate []T, index func([]T, Ref) int, ref func(*T) Ref) bool {
	_, err := permute(current, refsOf(candidate, ref), index)
	return err == nil
}

func refsOf[T any](items []T, ref func(*T) Ref) []Ref {
	refs := make([]Ref, len(items))
	for i := range items {
		refs[i] = ref(&items[i])
	}
	return refs
}

// collectTempIDs returns the temporary identifiers in use, per entity kind
func collectTempIDs(sections []models.Section) map[string]map[string]bool {
	used := map[string]map[string]bool{
		"lesson":     {},
		"question":   {},
		"option":     {},
		"attachment": {},
		"subtitle":   {},
	}
	for _, section := range sections {
		for _, lesson := range section.Lessons {
			used["lesson"][lesson.TempID] = true
			for _, question := range lesson.Questions {
				used["question"][question.TempID] = true
				for _, option := range question.Options {
					used["option"][option.TempID] = true
				}
			}
			for _, attachment := range lesson.Attachments {
				used["attachment"][attachment.TempID] = true
			}
			for _, subtitle := range lesson.Subtitles {
				used["subtitle"][subtitle.TempID] = true
			}
		}
	}
	return used
}

// detachLesson turns an incoming lesson into a new one.
//
// Persisted IDs belong to rows that already exist, so they are dropped from the lesson and its
// children. Temporary IDs already in use are cleared so that the reducer assigns fresh ones.
func detachLesson(lesson models.Lesson, used map[string]map[string]bool) models.Lesson {
	lesson = cloneLesson(lesson)
	fresh := func(kind, tempID string) string {
		if used[kind][tempID] {
			return ""
		}
		return tempID
	}

	lesson.ID = nil
	lesson.TempID = fresh("lesson", lesson.TempID)
	for q := range lesson.Questions {
		question := &lesson.Questions[q]
		question.ID = nil
		question.TempID = fresh("question", question.TempID)
		for o := range question.Options {
			question.Options[o].ID = nil
			question.Options[o].TempID = fresh("option", question.Options[o].TempID)
		}
	}
	for a := range lesson.Attachments {
		lesson.Attachments[a].ID = nil
		lesson.Attachments[a].TempID = fresh("attachment", lesson.Attachments[a].TempID)
	}
	for st := range lesson.Subtitles {
		lesson.Subtitles[st].ID = nil
		lesson.Subtitles[st].TempID = fresh("subtitle", lesson.Subtitles[st].TempID)
	}
	return lesson
}
