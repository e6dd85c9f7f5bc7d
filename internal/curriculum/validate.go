package curriculum

import (
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
)

// Violation describes a broken curriculum invariant
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidationError wraps the violations found by Validate
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "invalid curriculum: " + strings.Join(parts, "; ")
}

// IsValidLessonType reports whether t is one of the known lesson types
func IsValidLessonType(t models.LessonType) bool {
	switch t {
	case models.LessonTypeVideo, models.LessonTypeText, models.LessonTypeQuiz:
		return true
	}
	return false
}

// NormalizePayload clears every payload that does not belong to the lesson's type.
//
// A QUIZ lesson always ends up with a non-nil question list. Lessons of an unknown type are
// left untouched.
func NormalizePayload(lesson *models.Lesson) {
	switch lesson.LessonType {
	case models.LessonTypeQuiz:
		lesson.TextContent = nil
		lesson.VideoURL = nil
		lesson.VideoDuration = nil
		if lesson.Questions == nil {
			lesson.Questions = []models.QuizQuestion{}
		}
	case models.LessonTypeText:
		lesson.Questions = nil
		lesson.VideoURL = nil
		lesson.VideoDuration = nil
	case models.LessonTypeVideo:
		lesson.Questions = nil
		lesson.TextContent = nil
	}
}

// MarkCorrectOption marks the referenced option as the only correct answer of the question
func MarkCorrectOption(question *models.QuizQuestion, optionRef Ref) error {
	idx := indexOfOption(question.Options, optionRef)
	if idx < 0 {
		return ErrOptionNotFound
	}
	for i := range question.Options {
		question.Options[i].IsCorrect = i == idx
	}
	return nil
}

// Validate checks every structural invariant of a curriculum and returns the violations found
func Validate(sections []models.Section) []Violation {
	var violations []Violation
	add := func(path, format string, args ...any) {
		violations = append(violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	seen := map[string]map[string]string{
		"section":    {},
		"lesson":     {},
		"question":   {},
		"option":     {},
		"attachment": {},
		"subtitle":   {},
	}
	checkTempID := func(kind, path, tempID string) {
		if tempID == "" {
			add(path, "temporary id is missing")
			return
		}
		if other, ok := seen[kind][tempID]; ok {
			add(path, "temporary id %q is already used by %s", tempID, other)
			return
		}
		seen[kind][tempID] = path
	}
	// persisted ids are unique per entity kind
	seenIDs := map[string]map[int64]string{}
	checkID := func(kind, path string, id *int64) {
		if id == nil {
			return
		}
		if seenIDs[kind] == nil {
			seenIDs[kind] = map[int64]string{}
		}
		if other, ok := seenIDs[kind][*id]; ok {
			add(path, "%s id %d is already used by %s", kind, *id, other)
			return
		}
		seenIDs[kind][*id] = path
	}
	checkEntity := func(kind, path string, id *int64, tempID string) {
		checkTempID(kind, path, tempID)
		checkID(kind, path, id)
	}

	for i, section := range sections {
		sPath := fmt.Sprintf("sections[%d]", i)
		checkEntity("section", sPath, section.ID, section.TempID)
		if strings.TrimSpace(section.Name) == "" {
			add(sPath, "section name is required")
		}
		if section.SectionOrder != i {
			add(sPath, "section order is %d, expected %d", section.SectionOrder, i)
		}

		for j, lesson := range section.Lessons {
			lPath := fmt.Sprintf("%s.lessons[%d]", sPath, j)
			checkEntity("lesson", lPath, lesson.ID, lesson.TempID)
			if strings.TrimSpace(lesson.Name) == "" {
				add(lPath, "lesson name is required")
			}
			if lesson.LessonOrder != j {
				add(lPath, "lesson order is %d, expected %d", lesson.LessonOrder, j)
			}
			violations = append(violations, validatePayload(lPath, lesson)...)

			for q, question := range lesson.Questions {
				qPath := fmt.Sprintf("%s.questions[%d]", lPath, q)
				checkEntity("question", qPath, question.ID, question.TempID)
				if strings.TrimSpace(question.QuestionText) == "" {
					add(qPath, "question text is required")
				}
				if question.QuestionOrder != q {
					add(qPath, "question order is %d, expected %d", question.QuestionOrder, q)
				}
				correct := 0
				for o, option := range question.Options {
					oPath := fmt.Sprintf("%s.options[%d]", qPath, o)
					checkEntity("option", oPath, option.ID, option.TempID)
					if option.OptionOrder != o {
						add(oPath, "option order is %d, expected %d", option.OptionOrder, o)
					}
					if option.IsCorrect {
						correct++
					}
				}
				if correct > 1 {
					add(qPath, "only one option may be marked correct")
				}
			}
			for a, attachment := range lesson.Attachments {
				checkEntity("attachment", fmt.Sprintf("%s.attachments[%d]", lPath, a), attachment.ID, attachment.TempID)
			}
			for s, subtitle := range lesson.Subtitles {
				checkEntity("subtitle", fmt.Sprintf("%s.subtitles[%d]", lPath, s), subtitle.ID, subtitle.TempID)
			}
		}
	}

	return violations
}

func validatePayload(path string, lesson models.Lesson) []Violation {
	var violations []Violation
	add := func(msg string) {
		violations = append(violations, Violation{Path: path, Message: msg})
	}

	switch lesson.LessonType {
	case models.LessonTypeQuiz:
		if lesson.Questions == nil {
			add("quiz lesson must define questions")
		}
		if lesson.TextContent != nil || lesson.VideoURL != nil {
			add("quiz lesson must not carry text or video content")
		}
	case models.LessonTypeText:
		if lesson.Questions != nil || lesson.VideoURL != nil {
			add("text lesson must not carry questions or video content")
		}
	case models.LessonTypeVideo:
		if lesson.Questions != nil || lesson.TextContent != nil {
			add("video lesson must not carry questions or text content")
		}
	default:
		add(fmt.Sprintf("invalid lesson type %q", lesson.LessonType))
	}
	return violations
}
