package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coursehub/backend/internal/curriculum"
	"github.com/coursehub/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// curriculumFile is the on-disk form of a curriculum
type curriculumFile struct {
	CourseID int              `json:"courseId,omitempty" yaml:"courseId,omitempty"`
	Sections []models.Section `json:"sections" yaml:"sections"`
}

// loadCurriculum reads a curriculum file, picking the decoder from the file extension
func loadCurriculum(path string) (*curriculumFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file curriculumFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported curriculum file %s: expected .yaml, .yml or .json", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &file, nil
}

// writeYAML encodes a curriculum as YAML
func writeYAML(w io.Writer, file *curriculumFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode curriculum: %w", err)
	}
	return enc.Close()
}

// normalize hydrates a curriculum, re-stamps every order from list positions and clears
// payloads that do not match the lesson type
func normalize(sections []models.Section, gen curriculum.IDGenerator) []models.Section {
	sections = curriculum.Hydrate(sections, gen)
	for i := range sections {
		sections[i].SectionOrder = i
		for j := range sections[i].Lessons {
			lesson := &sections[i].Lessons[j]
			lesson.LessonOrder = j
			curriculum.NormalizePayload(lesson)
			for q := range lesson.Questions {
				lesson.Questions[q].QuestionOrder = q
				for o := range lesson.Questions[q].Options {
					lesson.Questions[q].Options[o].OptionOrder = o
				}
			}
		}
	}
	return sections
}
