package curriculum

import (
	"encoding/json"
	"fmt"

	"github.com/coursehub/backend/internal/models"
)

// Action type names used in the wire form of actions
const (
	TypeAddSection      = "ADD_SECTION"
	TypeUpdateSection   = "UPDATE_SECTION"
	TypeDeleteSection   = "DELETE_SECTION"
	TypeAddLesson       = "ADD_LESSON"
	TypeUpdateLesson    = "UPDATE_LESSON"
	TypeDeleteLesson    = "DELETE_LESSON"
	TypeReorderSections = "REORDER_SECTIONS"
	TypeReorderLessons  = "REORDER_LESSONS"
	TypeSetCurriculum   = "SET_CURRICULUM"
)

// Action is a curriculum transition understood by Reduce.
//
// The set of actions is closed: only the types declared in this package implement it.
// Actions are passed by value.
type Action interface {
	// ActionType returns the wire name of the action
	ActionType() string
	isAction()
}

// AddSection appends a new section
type AddSection struct {
	Name        string  `json:"sectionName"`
	Description *string `json:"description,omitempty"`
}

// UpdateSection replaces the name and description of a section
type UpdateSection struct {
	Section     Ref     `json:"sectionId"`
	Name        string  `json:"sectionName"`
	Description *string `json:"description,omitempty"`
}

// DeleteSection removes a section
type DeleteSection struct {
	Section Ref `json:"sectionId"`
}

// AddLesson appends a lesson to a section
type AddLesson struct {
	Section Ref           `json:"sectionId"`
	Lesson  models.Lesson `json:"lesson"`
}

// UpdateLesson replaces a lesson identified by the lesson's own identifiers
type UpdateLesson struct {
	Section Ref           `json:"sectionId"`
	Lesson  models.Lesson `json:"lesson"`
}

// DeleteLesson removes a lesson from a section
type DeleteLesson struct {
	Section Ref `json:"sectionId"`
	Lesson  Ref `json:"lessonId"`
}

// ReorderSections replaces the section list with an externally reordered one
type ReorderSections struct {
	Sections []models.Section `json:"sections"`
}

// ReorderLessons replaces the lesson list of a section with an externally reordered one
type ReorderLessons struct {
	Section Ref             `json:"sectionId"`
	Lessons []models.Lesson `json:"lessons"`
}

// SetCurriculum loads a whole curriculum, typically read from the database
type SetCurriculum struct {
	Sections []models.Section `json:"sections"`
}

func (AddSection) ActionType() string      { return TypeAddSection }
func (UpdateSection) ActionType() string   { return TypeUpdateSection }
func (DeleteSection) ActionType() string   { return TypeDeleteSection }
func (AddLesson) ActionType() string       { return TypeAddLesson }
func (UpdateLesson) ActionType() string    { return TypeUpdateLesson }
func (DeleteLesson) ActionType() string    { return TypeDeleteLesson }
func (ReorderSections) ActionType() string { return TypeReorderSections }
func (ReorderLessons) ActionType() string  { return TypeReorderLessons }
func (SetCurriculum) ActionType() string   { return TypeSetCurriculum }

func (AddSection) isAction()      {}
func (UpdateSection) isAction()   {}
func (DeleteSection) isAction()   {}
func (AddLesson) isAction()       {}
func (UpdateLesson) isAction()    {}
func (DeleteLesson) isAction()    {}
func (ReorderSections) isAction() {}
func (ReorderLessons) isAction()  {}
func (SetCurriculum) isAction()   {}

// DecodeAction builds an action from its wire form ({"type": ..., "payload": {...}})
func DecodeAction(actionType string, payload json.RawMessage) (Action, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	switch actionType {
	case TypeAddSection:
		return decodeInto[AddSection](payload)
	case TypeUpdateSection:
		return decodeInto[UpdateSection](payload)
	case TypeDeleteSection:
		return decodeInto[DeleteSection](payload)
	case TypeAddLesson:
		return decodeInto[AddLesson](payload)
	case TypeUpdateLesson:
		return decodeInto[UpdateLesson](payload)
	case TypeDeleteLesson:
		return decodeInto[DeleteLesson](payload)
	case TypeReorderSections:
		return decodeInto[ReorderSections](payload)
	case TypeReorderLessons:
		return decodeInto[ReorderLessons](payload)
	case TypeSetCurriculum:
		return decodeInto[SetCurriculum](payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, actionType)
	}
}

func decodeInto[T Action](payload json.RawMessage) (Action, error) {
	var action T
	if err := json.Unmarshal(payload, &action); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", action.ActionType(), err)
	}
	return action, nil
}
