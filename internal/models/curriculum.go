package models

import (
	"encoding/json"
	"time"
)

// LessonType represents the kind of content a lesson carries
type LessonType string

const (
	LessonTypeVideo LessonType = "VIDEO"
	LessonTypeText  LessonType = "TEXT"
	LessonTypeQuiz  LessonType = "QUIZ"
)

// Section represents an ordered group of lessons within a course curriculum
type Section struct {
	ID           *int64   `json:"sectionId,omitempty" yaml:"sectionId,omitempty"`
	TempID       string   `json:"tempId" yaml:"tempId,omitempty"`
	Name         string   `json:"sectionName" yaml:"sectionName"`
	Description  *string  `json:"description,omitempty" yaml:"description,omitempty"`
	SectionOrder int      `json:"sectionOrder" yaml:"sectionOrder"`
	Lessons      []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson represents a single unit of course content
//
// Exactly one of the type-specific payloads (video fields, TextContent or Questions) is active,
// matching LessonType.
type Lesson struct {
	ID            *int64         `json:"lessonId,omitempty" yaml:"lessonId,omitempty"`
	TempID        string         `json:"tempId" yaml:"tempId,omitempty"`
	Name          string         `json:"lessonName" yaml:"lessonName"`
	Description   *string        `json:"description,omitempty" yaml:"description,omitempty"`
	LessonOrder   int            `json:"lessonOrder" yaml:"lessonOrder"`
	LessonType    LessonType     `json:"lessonType" yaml:"lessonType"`
	VideoURL      *string        `json:"videoUrl,omitempty" yaml:"videoUrl,omitempty"`
	VideoDuration *int           `json:"videoDuration,omitempty" yaml:"videoDuration,omitempty"`
	TextContent   *string        `json:"textContent,omitempty" yaml:"textContent,omitempty"`
	Questions     []QuizQuestion `json:"questions" yaml:"questions,omitempty"`
	IsFree        bool           `json:"isFree" yaml:"isFree"`
	Attachments   []Attachment   `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Subtitles     []Subtitle     `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
}

// QuizQuestion represents a question of a QUIZ lesson
type QuizQuestion struct {
	ID            *int64       `json:"questionId,omitempty" yaml:"questionId,omitempty"`
	TempID        string       `json:"tempId" yaml:"tempId,omitempty"`
	QuestionText  string       `json:"questionText" yaml:"questionText"`
	Explanation   *string      `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	QuestionOrder int          `json:"questionOrder" yaml:"questionOrder"`
	Options       []QuizOption `json:"options" yaml:"options"`
}

// QuizOption represents an answer option of a quiz question
type QuizOption struct {
	ID          *int64 `json:"optionId,omitempty" yaml:"optionId,omitempty"`
	TempID      string `json:"tempId" yaml:"tempId,omitempty"`
	OptionText  string `json:"optionText" yaml:"optionText"`
	IsCorrect   bool   `json:"isCorrect" yaml:"isCorrect"`
	OptionOrder int    `json:"optionOrder" yaml:"optionOrder"`
}

// Attachment represents a downloadable file attached to a lesson
type Attachment struct {
	ID       *int64 `json:"attachmentId,omitempty" yaml:"attachmentId,omitempty"`
	TempID   string `json:"tempId" yaml:"tempId,omitempty"`
	FileName string `json:"fileName" yaml:"fileName"`
	FileURL  string `json:"fileUrl" yaml:"fileUrl"`
	FileType string `json:"fileType" yaml:"fileType"`
	FileSize int64  `json:"fileSize" yaml:"fileSize"`
}

// Subtitle represents a subtitle track of a video lesson
type Subtitle struct {
	ID           *int64 `json:"subtitleId,omitempty" yaml:"subtitleId,omitempty"`
	TempID       string `json:"tempId" yaml:"tempId,omitempty"`
	LanguageCode string `json:"languageCode" yaml:"languageCode"`
	SubtitleURL  string `json:"subtitleUrl" yaml:"subtitleUrl"`
	IsDefault    bool   `json:"isDefault" yaml:"isDefault"`
}

// CurriculumDraft represents an in-progress editing session of a course curriculum
type CurriculumDraft struct {
	CourseID  int       `json:"courseId"`
	Version   int       `json:"version"`
	Sections  []Section `json:"sections"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Notice represents a user-facing confirmation produced by a curriculum change
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// DraftResponse represents a draft together with the notices of the last change
type DraftResponse struct {
	Draft   *CurriculumDraft `json:"draft"`
	Notices []Notice         `json:"notices,omitempty"`
}

// SectionRequest represents a request to add or update a section
type SectionRequest struct {
	Name        string  `json:"sectionName" example:"Getting started"`
	Description *string `json:"description,omitempty" example:"Installing the tools"`
}

// ReorderRequest represents a request to reorder sections or lessons by their identifiers
type ReorderRequest struct {
	Order []string `json:"order" example:"12,tmp-3f1c"`
}

// CorrectOptionRequest represents a request to mark a quiz option as the correct one
type CorrectOptionRequest struct {
	OptionRef string `json:"optionRef" example:"tmp-9a0e"`
}

// ActionRequest represents a raw curriculum action in its wire form
type ActionRequest struct {
	Type    string          `json:"type" example:"ADD_SECTION"`
	Payload json.RawMessage `json:"payload" swaggertype:"object"`
}
