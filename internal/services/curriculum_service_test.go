package services

import (
	"context"
	"errors"
	"testing"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func savedTree() []models.Section {
	return []models.Section{
		{
			ID:           ptr(int64(10)),
			Name:         "Intro",
			SectionOrder: 0,
			Lessons: []models.Lesson{
				{
					ID:          ptr(int64(100)),
					Name:        "Welcome",
					LessonOrder: 0,
					LessonType:  models.LessonTypeText,
					TextContent: ptr("Hello"),
				},
			},
		},
	}
}

type curriculumFixture struct {
	courses *mockCourseRepository
	tree    *mockTreeRepository
	drafts  *mockDraftStore
	service *curriculumService
}

func newCurriculumFixture(status models.CourseStatus) *curriculumFixture {
	logger, _ := zap.NewDevelopment()
	f := &curriculumFixture{
		courses: &mockCourseRepository{course: &models.Course{ID: 1, AuthorID: 7, Title: "Go", Status: status}},
		tree:    &mockTreeRepository{tree: savedTree()},
		drafts:  newMockDraftStore(),
	}
	f.service = NewCurriculumService(f.courses, f.tree, f.drafts, curriculum.NewSequenceGenerator("tmp"), logger)
	return f
}

func TestNewCurriculumService(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := NewCurriculumService(&mockCourseRepository{}, &mockTreeRepository{}, newMockDraftStore(), nil, logger)

	assert.NotNil(t, svc)
	assert.IsType(t, curriculum.UUIDGenerator{}, svc.gen)
}

func TestCurriculumService_OpenDraft(t *testing.T) {
	tutor := 7

	t.Run("hydrates the saved curriculum", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)

		draft, err := f.service.OpenDraft(context.Background(), 1, &tutor)

		require.NoError(t, err)
		assert.Equal(t, 1, draft.Version)
		require.Len(t, draft.Sections, 1)
		assert.Equal(t, "10", draft.Sections[0].TempID)
		assert.Equal(t, "100", draft.Sections[0].Lessons[0].TempID)
		assert.Equal(t, 1, f.drafts.saves)
	})

	t.Run("returns the existing draft", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)
		_, err := f.service.OpenDraft(context.Background(), 1, nil)
		require.NoError(t, err)
		f.tree.getErr = errors.New("must not be called")

		draft, err := f.service.OpenDraft(context.Background(), 1, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, draft.Version)
		assert.Equal(t, 1, f.drafts.saves)
	})

	t.Run("concurrent first open keeps the other request's edit", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)
		// another request opens the draft and edits it between our lookup and our write
		f.drafts.beforeSaveIfAbsent = func() {
			_, err := f.service.AddSection(context.Background(), 1, &tutor, &models.SectionRequest{Name: "Basics"})
			require.NoError(t, err)
		}

		resp, err := f.service.AddSection(context.Background(), 1, &tutor, &models.SectionRequest{Name: "Advanced"})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Draft.Version)
		var names []string
		for _, section := range resp.Draft.Sections {
			names = append(names, section.Name)
		}
		assert.Equal(t, []string{"Intro", "Basics", "Advanced"}, names)
		assert.Equal(t, 1, f.drafts.saves)

		stored, err := f.service.OpenDraft(context.Background(), 1, &tutor)
		require.NoError(t, err)
		assert.Equal(t, resp.Draft, stored)
	})

	tests := []struct {
		name          string
		tutorID       *int
		setup         func(f *curriculumFixture)
		expectedError string
	}{
		{
			name:          "other tutor",
			tutorID:       ptr(8),
			expectedError: "you do not have rights to manage this course",
		},
		{
			name:          "course not found",
			tutorID:       &tutor,
			setup:         func(f *curriculumFixture) { f.courses.course = nil },
			expectedError: "course not found",
		},
		{
			name:          "draft store error",
			tutorID:       &tutor,
			setup:         func(f *curriculumFixture) { f.drafts.getErr = errors.New("redis down") },
			expectedError: "redis down",
		},
		{
			name:          "draft save error",
			tutorID:       &tutor,
			setup:         func(f *curriculumFixture) { f.drafts.saveErr = errors.New("failed to save draft: redis down") },
			expectedError: "failed to save draft",
		},
		{
			name:          "tree error",
			tutorID:       &tutor,
			setup:         func(f *curriculumFixture) { f.tree.getErr = errors.New("db error") },
			expectedError: "failed to load curriculum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCurriculumFixture(models.CourseStatusDraft)
			if tt.setup != nil {
				tt.setup(f)
			}

			draft, err := f.service.OpenDraft(context.Background(), 1, tt.tutorID)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Nil(t, draft)
		})
	}
}

func TestCurriculumService_AddSection(t *testing.T) {
	tutor := 7

	t.Run("success", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)

		resp, err := f.service.AddSection(context.Background(), 1, &tutor, &models.SectionRequest{Name: "Basics"})

		require.NoError(t, err)
		assert.Equal(t, 2, resp.Draft.Version)
		require.Len(t, resp.Draft.Sections, 2)
		assert.Equal(t, "Basics", resp.Draft.Sections[1].Name)
		assert.Equal(t, "tmp-1", resp.Draft.Sections[1].TempID)
		assert.Equal(t, 1, resp.Draft.Sections[1].SectionOrder)
		assert.Nil(t, resp.Draft.Sections[1].ID)
		assert.Equal(t, []models.Notice{{Level: curriculum.LevelSuccess, Message: "Section added successfully"}}, resp.Notices)
	})

	t.Run("blank name", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)

		resp, err := f.service.AddSection(context.Background(), 1, &tutor, &models.SectionRequest{Name: "  "})

		assert.EqualError(t, err, "section name is required")
		assert.Nil(t, resp)
		assert.Equal(t, 0, f.drafts.saves)
	})

	t.Run("other tutor", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)

		_, err := f.service.AddSection(context.Background(), 1, ptr(8), &models.SectionRequest{Name: "Basics"})

		assert.EqualError(t, err, "you do not have rights to manage this course")
	})
}

func TestCurriculumService_EditOperations(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(s *curriculumService) (*models.DraftResponse, error)
		assert func(t *testing.T, sections []models.Section)
		notice string
	}{
		{
			name: "update section by persisted id",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.UpdateSection(context.Background(), 1, nil, "10", &models.SectionRequest{Name: "Introduction"})
			},
			assert: func(t *testing.T, sections []models.Section) {
				assert.Equal(t, "Introduction", sections[0].Name)
				assert.Equal(t, int64(10), *sections[0].ID)
			},
			notice: "Section updated successfully",
		},
		{
			name: "delete section",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.DeleteSection(context.Background(), 1, nil, "10")
			},
			assert: func(t *testing.T, sections []models.Section) {
				assert.Empty(t, sections)
			},
			notice: "Section deleted successfully",
		},
		{
			name: "add lesson",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.AddLesson(context.Background(), 1, nil, "10", models.Lesson{
					Name:       "Quiz",
					LessonType: models.LessonTypeQuiz,
				})
			},
			assert: func(t *testing.T, sections []models.Section) {
				require.Len(t, sections[0].Lessons, 2)
				lesson := sections[0].Lessons[1]
				assert.Equal(t, "Quiz", lesson.Name)
				assert.Equal(t, 1, lesson.LessonOrder)
				assert.NotEmpty(t, lesson.TempID)
				assert.NotNil(t, lesson.Questions)
			},
			notice: "Lesson added successfully",
		},
		{
			name: "update lesson keeps identity",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.UpdateLesson(context.Background(), 1, nil, "10", "100", models.Lesson{
					Name:        "Welcome!",
					LessonType:  models.LessonTypeText,
					TextContent: ptr("Hi"),
				})
			},
			assert: func(t *testing.T, sections []models.Section) {
				lesson := sections[0].Lessons[0]
				assert.Equal(t, "Welcome!", lesson.Name)
				assert.Equal(t, int64(100), *lesson.ID)
				assert.Equal(t, "100", lesson.TempID)
				assert.Equal(t, 0, lesson.LessonOrder)
			},
			notice: "Lesson updated successfully",
		},
		{
			name: "delete lesson",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.DeleteLesson(context.Background(), 1, nil, "10", "100")
			},
			assert: func(t *testing.T, sections []models.Section) {
				assert.Empty(t, sections[0].Lessons)
			},
			notice: "Lesson deleted successfully",
		},
		{
			name: "reorder lessons",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.ReorderLessons(context.Background(), 1, nil, "10", []string{"100"})
			},
			assert: func(t *testing.T, sections []models.Section) {
				assert.Len(t, sections[0].Lessons, 1)
			},
			notice: "Lessons reordered",
		},
		{
			name: "apply raw action",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.ApplyAction(context.Background(), 1, nil, curriculum.AddSection{Name: "Advanced"})
			},
			assert: func(t *testing.T, sections []models.Section) {
				require.Len(t, sections, 2)
				assert.Equal(t, "Advanced", sections[1].Name)
			},
			notice: "Section added successfully",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCurriculumFixture(models.CourseStatusDraft)

			resp, err := tt.edit(f.service)

			require.NoError(t, err)
			assert.Equal(t, 2, resp.Draft.Version)
			tt.assert(t, resp.Draft.Sections)
			require.Len(t, resp.Notices, 1)
			assert.Equal(t, tt.notice, resp.Notices[0].Message)

			stored, err := f.drafts.Get(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, resp.Draft.Sections, stored.Sections)
		})
	}
}

func TestCurriculumService_ReorderSections(t *testing.T) {
	f := newCurriculumFixture(models.CourseStatusDraft)
	_, err := f.service.AddSection(context.Background(), 1, nil, &models.SectionRequest{Name: "Basics"})
	require.NoError(t, err)

	resp, err := f.service.ReorderSections(context.Background(), 1, nil, []string{"tmp-1", "10"})

	require.NoError(t, err)
	assert.Equal(t, "Basics", resp.Draft.Sections[0].Name)
	assert.Equal(t, 0, resp.Draft.Sections[0].SectionOrder)
	assert.Equal(t, "Intro", resp.Draft.Sections[1].Name)
	assert.Equal(t, 1, resp.Draft.Sections[1].SectionOrder)

	_, err = f.service.ReorderSections(context.Background(), 1, nil, []string{"10"})
	assert.ErrorIs(t, err, curriculum.ErrInvalidOrder)
}

func TestCurriculumService_EditErrorsKeepDraft(t *testing.T) {
	tests := []struct {
		name        string
		edit        func(s *curriculumService) (*models.DraftResponse, error)
		expectedErr error
		expectedMsg string
	}{
		{
			name: "unknown section",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.UpdateSection(context.Background(), 1, nil, "99", &models.SectionRequest{Name: "X"})
			},
			expectedErr: curriculum.ErrSectionNotFound,
		},
		{
			name: "unknown lesson",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.DeleteLesson(context.Background(), 1, nil, "10", "tmp-404")
			},
			expectedErr: curriculum.ErrLessonNotFound,
		},
		{
			name: "blank lesson name",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.AddLesson(context.Background(), 1, nil, "10", models.Lesson{LessonType: models.LessonTypeText})
			},
			expectedMsg: "lesson name is required",
		},
		{
			name: "blank lesson name on update",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.UpdateLesson(context.Background(), 1, nil, "10", "100", models.Lesson{LessonType: models.LessonTypeText})
			},
			expectedMsg: "lesson name is required",
		},
		{
			name: "missing option reference",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.SetCorrectOption(context.Background(), 1, nil, "10", "100", "1", "")
			},
			expectedMsg: "option reference is required",
		},
		{
			name: "question of a text lesson",
			edit: func(s *curriculumService) (*models.DraftResponse, error) {
				return s.SetCorrectOption(context.Background(), 1, nil, "10", "100", "1", "2")
			},
			expectedErr: curriculum.ErrQuestionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCurriculumFixture(models.CourseStatusDraft)
			_, err := f.service.OpenDraft(context.Background(), 1, nil)
			require.NoError(t, err)

			resp, err := tt.edit(f.service)

			assert.Nil(t, resp)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.EqualError(t, err, tt.expectedMsg)
			}
			stored, err := f.drafts.Get(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, 1, stored.Version)
		})
	}
}

func TestCurriculumService_SetCorrectOption(t *testing.T) {
	f := newCurriculumFixture(models.CourseStatusDraft)
	f.tree.tree[0].Lessons = append(f.tree.tree[0].Lessons, models.Lesson{
		ID:          ptr(int64(101)),
		Name:        "Check",
		LessonOrder: 1,
		LessonType:  models.LessonTypeQuiz,
		Questions: []models.QuizQuestion{
			{
				ID:           ptr(int64(400)),
				QuestionText: "2+2?",
				Options: []models.QuizOption{
					{ID: ptr(int64(500)), OptionText: "3", IsCorrect: true},
					{ID: ptr(int64(501)), OptionText: "4", OptionOrder: 1},
				},
			},
		},
	})

	resp, err := f.service.SetCorrectOption(context.Background(), 1, nil, "10", "101", "400", "501")

	require.NoError(t, err)
	options := resp.Draft.Sections[0].Lessons[1].Questions[0].Options
	assert.False(t, options[0].IsCorrect)
	assert.True(t, options[1].IsCorrect)
}

func TestCurriculumService_SaveDraft(t *testing.T) {
	t.Run("saves new entities and keeps temporary ids", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusPublished)
		_, err := f.service.AddSection(context.Background(), 1, ptr(7), &models.SectionRequest{Name: "Basics"})
		require.NoError(t, err)

		draft, err := f.service.SaveDraft(context.Background(), 1, ptr(7))

		require.NoError(t, err)
		assert.Equal(t, 3, draft.Version)
		require.Len(t, draft.Sections, 2)
		require.NotNil(t, draft.Sections[1].ID)
		assert.Equal(t, int64(1001), *draft.Sections[1].ID)
		assert.Equal(t, "tmp-1", draft.Sections[1].TempID)
		assert.Len(t, f.tree.saved, 2)
		assert.Equal(t, []models.CourseStatus{models.CourseStatusDraft}, f.courses.statusUpdates)
	})

	t.Run("draft course keeps its status", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)
		_, err := f.service.OpenDraft(context.Background(), 1, nil)
		require.NoError(t, err)

		_, err = f.service.SaveDraft(context.Background(), 1, nil)

		require.NoError(t, err)
		assert.Empty(t, f.courses.statusUpdates)
	})

	t.Run("invalid curriculum", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)
		require.NoError(t, f.drafts.Save(context.Background(), &models.CurriculumDraft{
			CourseID: 1,
			Version:  1,
			Sections: []models.Section{{TempID: "s1", Name: ""}},
		}))

		_, err := f.service.SaveDraft(context.Background(), 1, nil)

		var validationErr *curriculum.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "section name is required", validationErr.Violations[0].Message)
		assert.Nil(t, f.tree.saved)
	})

	t.Run("draft changed while saving", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusDraft)
		_, err := f.service.OpenDraft(context.Background(), 1, nil)
		require.NoError(t, err)
		f.drafts.beforeUpdate = func(d *models.CurriculumDraft) { d.Version++ }

		_, err = f.service.SaveDraft(context.Background(), 1, nil)

		assert.EqualError(t, err, "draft was changed while saving, please save again")
	})

	t.Run("published course goes back to draft even when the draft changed while saving", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusPublished)
		_, err := f.service.OpenDraft(context.Background(), 1, nil)
		require.NoError(t, err)
		f.drafts.beforeUpdate = func(d *models.CurriculumDraft) { d.Version++ }

		_, err = f.service.SaveDraft(context.Background(), 1, nil)

		assert.EqualError(t, err, "draft was changed while saving, please save again")
		assert.Len(t, f.tree.saved, 1)
		assert.Equal(t, []models.CourseStatus{models.CourseStatusDraft}, f.courses.statusUpdates)
	})

	t.Run("status update error leaves the curriculum untouched", func(t *testing.T) {
		f := newCurriculumFixture(models.CourseStatusRejected)
		_, err := f.service.OpenDraft(context.Background(), 1, nil)
		require.NoError(t, err)
		f.courses.updateStatusErr = errors.New("status error")

		_, err = f.service.SaveDraft(context.Background(), 1, nil)

		assert.EqualError(t, err, "status error")
		assert.Nil(t, f.tree.saved)
	})

	tests := []struct {
		name          string
		status        models.CourseStatus
		setup         func(f *curriculumFixture)
		expectedError string
	}{
		{
			name:          "pending review",
			status:        models.CourseStatusPendingReview,
			expectedError: "course is already pending review",
		},
		{
			name:          "no draft",
			status:        models.CourseStatusDraft,
			setup:         func(f *curriculumFixture) { f.drafts.drafts = map[int]*models.CurriculumDraft{} },
			expectedError: "draft not found",
		},
		{
			name:          "repository error",
			status:        models.CourseStatusDraft,
			setup:         func(f *curriculumFixture) { f.tree.saveErr = errors.New("db error") },
			expectedError: "failed to save curriculum",
		},
		{
			name:   "status update error",
			status: models.CourseStatusRejected,
			setup: func(f *curriculumFixture) {
				f.courses.updateStatusErr = errors.New("status error")
			},
			expectedError: "status error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCurriculumFixture(models.CourseStatusDraft)
			_, err := f.service.OpenDraft(context.Background(), 1, nil)
			require.NoError(t, err)
			f.courses.course.Status = tt.status
			if tt.setup != nil {
				tt.setup(f)
			}

			draft, err := f.service.SaveDraft(context.Background(), 1, nil)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Nil(t, draft)
		})
	}
}

func TestCurriculumService_DiscardDraft(t *testing.T) {
	f := newCurriculumFixture(models.CourseStatusDraft)
	_, err := f.service.AddSection(context.Background(), 1, nil, &models.SectionRequest{Name: "Basics"})
	require.NoError(t, err)

	require.NoError(t, f.service.DiscardDraft(context.Background(), 1, ptr(7)))

	draft, err := f.service.OpenDraft(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Len(t, draft.Sections, 1)
	assert.Equal(t, 1, draft.Version)

	err = f.service.DiscardDraft(context.Background(), 1, ptr(8))
	assert.EqualError(t, err, "you do not have rights to manage this course")
}

func TestCurriculumService_GetPublishedCurriculum(t *testing.T) {
	tests := []struct {
		name          string
		status        models.CourseStatus
		course        bool
		treeErr       error
		expectedError string
	}{
		{name: "published", status: models.CourseStatusPublished, course: true},
		{name: "draft course is hidden", status: models.CourseStatusDraft, course: true, expectedError: "course not found"},
		{name: "pending course is hidden", status: models.CourseStatusPendingReview, course: true, expectedError: "course not found"},
		{name: "missing course", course: false, expectedError: "course not found"},
		{name: "tree error", status: models.CourseStatusPublished, course: true, treeErr: errors.New("db error"), expectedError: "failed to load curriculum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCurriculumFixture(tt.status)
			if !tt.course {
				f.courses.course = nil
			}
			f.tree.getErr = tt.treeErr

			sections, err := f.service.GetPublishedCurriculum(context.Background(), 1)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, sections)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, savedTree(), sections)
		})
	}
}
