package curriculum

import (
	"encoding/json"
	"testing"

	"github.com/coursehub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		id        *int64
		tempID    string
		wantMatch bool
	}{
		{name: "numeric matches persisted", input: "42", id: int64Ptr(42), tempID: "tmp-1", wantMatch: true},
		{name: "numeric matches temp", input: "42", tempID: "42", wantMatch: true},
		{name: "temp matches temp", input: "tmp-1", tempID: "tmp-1", wantMatch: true},
		{name: "temp never matches persisted", input: "tmp-1", id: int64Ptr(1), tempID: "tmp-2", wantMatch: false},
		{name: "different number", input: "43", id: int64Ptr(42), tempID: "42", wantMatch: false},
		{name: "empty matches nothing", input: "", tempID: "", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParseRef(tt.input)

			assert.Equal(t, tt.wantMatch, ref.Matches(tt.id, tt.tempID))
			assert.Equal(t, tt.input, ref.String())
		})
	}
}

func TestRef_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Ref
	}{
		{name: "string", input: `"tmp-9"`, expected: TempRef("tmp-9")},
		{name: "numeric string", input: `"12"`, expected: ParseRef("12")},
		{name: "number", input: `12`, expected: ParseRef("12")},
		{name: "null", input: `null`, expected: Ref{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref Ref
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ref))
			assert.Equal(t, tt.expected, ref)
		})
	}

	out, err := json.Marshal(PersistedRef(7))
	require.NoError(t, err)
	assert.JSONEq(t, `"7"`, string(out))

	out, err = json.Marshal(Ref{})
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(out))

	var ref Ref
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &ref))
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name          string
		actionType    string
		payload       string
		expected      Action
		expectedError error
		errorContains string
	}{
		{
			name:       "add section",
			actionType: TypeAddSection,
			payload:    `{"sectionName":"Intro"}`,
			expected:   AddSection{Name: "Intro"},
		},
		{
			name:       "delete lesson with numeric ids",
			actionType: TypeDeleteLesson,
			payload:    `{"sectionId":10,"lessonId":"tmp-l1"}`,
			expected:   DeleteLesson{Section: ParseRef("10"), Lesson: TempRef("tmp-l1")},
		},
		{
			name:       "add lesson",
			actionType: TypeAddLesson,
			payload:    `{"sectionId":"s1","lesson":{"lessonName":"Welcome","lessonType":"VIDEO"}}`,
			expected: AddLesson{
				Section: TempRef("s1"),
				Lesson:  models.Lesson{Name: "Welcome", LessonType: models.LessonTypeVideo},
			},
		},
		{
			name:       "empty payload",
			actionType: TypeSetCurriculum,
			payload:    ``,
			expected:   SetCurriculum{},
		},
		{
			name:          "unknown type",
			actionType:    "RENAME_COURSE",
			payload:       `{}`,
			expectedError: ErrUnknownAction,
			errorContains: "RENAME_COURSE",
		},
		{
			name:          "malformed payload",
			actionType:    TypeUpdateSection,
			payload:       `{"sectionName":5}`,
			errorContains: "invalid UPDATE_SECTION payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := DecodeAction(tt.actionType, json.RawMessage(tt.payload))

			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Nil(t, action)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, action)
			assert.Equal(t, tt.actionType, action.ActionType())
		})
	}
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("tmp")

	assert.Equal(t, "tmp-1", gen.NewID())
	assert.Equal(t, "tmp-2", gen.NewID())

	uuidGen := UUIDGenerator{}
	assert.NotEqual(t, uuidGen.NewID(), uuidGen.NewID())
}
