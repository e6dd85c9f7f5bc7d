package curriculum

import "github.com/coursehub/backend/internal/models"

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of a curriculum
func Clone(sections []models.Section) []models.Section {
	return cloneSections(sections)
}

func cloneSections(sections []models.Section) []models.Section {
	if sections == nil {
		return []models.Section{}
	}
	out := make([]models.Section, len(sections))
	for i := range sections {
		out[i] = cloneSection(sections[i])
	}
	return out
}

func cloneSection(s models.Section) models.Section {
	out := s
	out.ID = clonePtr(s.ID)
	out.Description = clonePtr(s.Description)
	if s.Lessons != nil {
		out.Lessons = make([]models.Lesson, len(s.Lessons))
		for i := range s.Lessons {
			out.Lessons[i] = cloneLesson(s.Lessons[i])
		}
	}
	return out
}

func cloneLesson(l models.Lesson) models.Lesson {
	out := l
	out.ID = clonePtr(l.ID)
	out.Description = clonePtr(l.Description)
	out.VideoURL = clonePtr(l.VideoURL)
	out.VideoDuration = clonePtr(l.VideoDuration)
	out.TextContent = clonePtr(l.TextContent)
	if l.Questions != nil {
		out.Questions = make([]models.QuizQuestion, len(l.Questions))
		for i := range l.Questions {
			out.Questions[i] = cloneQuestion(l.Questions[i])
		}
	}
	if l.Attachments != nil {
		out.Attachments = make([]models.Attachment, len(l.Attachments))
		for i, a := range l.Attachments {
			a.ID = clonePtr(a.ID)
			out.Attachments[i] = a
		}
	}
	if l.Subtitles != nil {
		out.Subtitles = make([]models.Subtitle, len(l.Subtitles))
		for i, s := range l.Subtitles {
			s.ID = clonePtr(s.ID)
			out.Subtitles[i] = s
		}
	}
	return out
}

func cloneQuestion(q models.QuizQuestion) models.QuizQuestion {
	out := q
	out.ID = clonePtr(q.ID)
	out.Explanation = clonePtr(q.Explanation)
	if q.Options != nil {
		out.Options = make([]models.QuizOption, len(q.Options))
		for i, o := range q.Options {
			o.ID = clonePtr(o.ID)
			out.Options[i] = o
		}
	}
	return out
}
