package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

// maxDraftUpdateRetries bounds the optimistic locking loop of Update
const maxDraftUpdateRetries = 3

// ErrDraftConflict is returned when a draft keeps changing under a concurrent update
var ErrDraftConflict = errors.New("draft was modified concurrently, please retry")

type draftRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewDraftRepository creates a Redis-backed store for curriculum drafts.
//
// Every write refreshes the draft's expiry to ttl.
func NewDraftRepository(client redis.UniversalClient, ttl time.Duration) *draftRepository {
	return &draftRepository{client: client, ttl: ttl}
}

func draftKey(courseID int) string {
	return fmt.Sprintf("curriculum:draft:%d", courseID)
}

// Get retrieves the draft of a course
func (r *draftRepository) Get(ctx context.Context, courseID int) (*models.CurriculumDraft, error) {
	return readDraft(ctx, r.client, courseID)
}

// Save stores a draft as is, replacing any previous one
func (r *draftRepository) Save(ctx context.Context, draft *models.CurriculumDraft) error {
	data, err := encodeDraft(draft)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, draftKey(draft.CourseID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// SaveIfAbsent stores a draft only if the course has none yet.
//
// Returns false without touching the stored draft when one already exists.
func (r *draftRepository) SaveIfAbsent(ctx context.Context, draft *models.CurriculumDraft) (bool, error) {
	data, err := encodeDraft(draft)
	if err != nil {
		return false, err
	}
	created, err := r.client.SetNX(ctx, draftKey(draft.CourseID), data, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to save draft: %w", err)
	}
	return created, nil
}

// Delete removes the draft of a course; deleting a missing draft is not an error
func (r *draftRepository) Delete(ctx context.Context, courseID int) error {
	if err := r.client.Del(ctx, draftKey(courseID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Update applies fn to the stored draft under optimistic locking and bumps its version.
//
// If another writer changes the draft between the read and the write, fn is run again on the
// fresh draft, up to maxDraftUpdateRetries times. An error returned by fn aborts the update
// and is returned unchanged.
func (r *draftRepository) Update(ctx context.Context, courseID int, fn func(*models.CurriculumDraft) error) (*models.CurriculumDraft, error) {
	key := draftKey(courseID)
	var updated *models.CurriculumDraft

	txf := func(tx *redis.Tx) error {
		draft, err := readDraft(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := fn(draft); err != nil {
			return err
		}
		draft.Version++
		draft.UpdatedAt = time.Now().UTC()

		data, err := encodeDraft(draft)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = draft
		return nil
	}

	for range maxDraftUpdateRetries {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrDraftConflict
}

// stringGetter is the subset of redis commands shared by clients and transactions that readDraft needs
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readDraft(ctx context.Context, c stringGetter, courseID int) (*models.CurriculumDraft, error) {
	data, err := c.Get(ctx, draftKey(courseID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("draft not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return decodeDraft(data)
}

func encodeDraft(draft *models.CurriculumDraft) ([]byte, error) {
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}
	return data, nil
}

func decodeDraft(data []byte) (*models.CurriculumDraft, error) {
	draft := &models.CurriculumDraft{}
	if err := json.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	if draft.Sections == nil {
		draft.Sections = []models.Section{}
	}
	return draft, nil
}
