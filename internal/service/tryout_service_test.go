package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/storage"
)

type mockObjectStore struct {
	objects map[string][]byte
	deleted []string
}

func (m *mockObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*storage.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return &storage.Object{Key: key, ContentType: contentType, Size: size}, nil
}

func (m *mockObjectStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *mockObjectStore) URL(ctx context.Context, key string) (string, error) {
	return "https://files.test/" + key, nil
}

type mockTryoutRepo struct {
	subs      map[string]models.TryoutSubmission
	upsertErr error
}

func (m *mockTryoutRepo) FindByApplicationID(ctx context.Context, applicationID string) (*models.TryoutSubmission, error) {
	if s, ok := m.subs[applicationID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTryoutRepo) Upsert(ctx context.Context, sub *models.TryoutSubmission) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.subs == nil {
		m.subs = make(map[string]models.TryoutSubmission)
	}
	if sub.ID == "" {
		sub.ID = "tryout-" + sub.ApplicationID
	}
	m.subs[sub.ApplicationID] = *sub
	return nil
}

type tryoutFixture struct {
	svc   *TryoutService
	repo  *mockTryoutRepo
	apps  *mockApplicationRepo
	store *mockObjectStore
}

func newTryoutFixture(enforce bool) tryoutFixture {
	appSvc, apps, _, _ := newApplicationFixture()
	apps.put(models.ApplicationDetail{
		Application:          models.Application{ID: "app-1", StudentID: "stu-1", OpportunityID: "opp-1", Status: models.ApplicationDraft},
		OpportunityCreatedBy: "prof-1",
	})
	store := &mockObjectStore{}
	repo := &mockTryoutRepo{}
	files := NewFileUploader(store, NewMetricsService(), UploadConfig{MaxBytes: 1 << 20, Enforce: enforce})
	svc := NewTryoutService(repo, apps, appSvc, files, NewMetricsService(), zap.NewNop())
	svc.now = clock
	return tryoutFixture{svc: svc, repo: repo, apps: apps, store: store}
}

func (f tryoutFixture) upload(t *testing.T, kind, filename, body string) error {
	t.Helper()
	_, err := f.svc.Upload(context.Background(), student("stu-1"), "app-1", kind, filename, strings.NewReader(body), int64(len(body)))
	return err
}

func TestTryoutServiceStateStartsPending(t *testing.T) {
	f := newTryoutFixture(false)

	state, err := f.svc.State(context.Background(), student("stu-1"), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "proposal-upload", state.CurrentStep)
	assert.Equal(t, models.TryoutPending, state.Submission.Status)
	assert.False(t, state.CanSubmit)
	assert.Equal(t, []string{"proposal", "video"}, state.Missing)

	_, err = f.svc.State(context.Background(), professor("prof-1"), "app-1")
	require.NoError(t, err)
	_, err = f.svc.State(context.Background(), student("stu-2"), "app-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTryoutServiceUploadRecordsReference(t *testing.T) {
	f := newTryoutFixture(false)

	state, err := f.svc.Upload(context.Background(), student("stu-1"), "app-1", "proposal", "plan.pdf", strings.NewReader("research plan"), 13)
	require.NoError(t, err)
	require.NotNil(t, state.Upload)
	assert.True(t, strings.HasPrefix(state.Upload.Reference, "tryouts/app-1/proposal/"))
	assert.True(t, strings.HasSuffix(state.Upload.Reference, ".pdf"))
	assert.Equal(t, "https://files.test/"+state.Upload.Reference, state.Upload.URL)
	assert.NotEmpty(t, state.Upload.Warnings)
	assert.Equal(t, []string{"video"}, state.Missing)

	stored := f.repo.subs["app-1"]
	require.NotNil(t, stored.ProposalRef)
	assert.Equal(t, state.Upload.Reference, *stored.ProposalRef)
}

func TestTryoutServiceReplacingDeletesOldObject(t *testing.T) {
	f := newTryoutFixture(false)
	require.NoError(t, f.upload(t, "proposal", "v1.pdf", "first draft"))
	first := *f.repo.subs["app-1"].ProposalRef

	require.NoError(t, f.upload(t, "proposal", "v2.pdf", "second draft"))
	assert.Equal(t, []string{first}, f.store.deleted)
	assert.Len(t, f.store.objects, 1)
}

func TestTryoutServiceUploadSaveFailureDiscardsObject(t *testing.T) {
	f := newTryoutFixture(false)
	f.repo.upsertErr = fmt.Errorf("database unavailable")

	err := f.upload(t, "video", "pitch.mp4", "not really a video")
	assert.ErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.Empty(t, f.store.objects)
	assert.Len(t, f.store.deleted, 1)
}

func TestTryoutServiceEnforcedChecksRejectUpload(t *testing.T) {
	f := newTryoutFixture(true)

	err := f.upload(t, "video", "pitch.txt", "plain text")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.store.objects)
	assert.Empty(t, f.repo.subs)
}

func TestTryoutServiceNextRequiresDeliverable(t *testing.T) {
	f := newTryoutFixture(false)

	_, err := f.svc.Next(context.Background(), student("stu-1"), "app-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{"proposal"}, fieldsOf(t, err))
}

func TestTryoutServiceWalkthroughSubmitsApplication(t *testing.T) {
	f := newTryoutFixture(false)
	ctx := context.Background()
	actor := student("stu-1")

	require.NoError(t, f.upload(t, "proposal", "plan.pdf", "plan"))
	state, err := f.svc.Next(ctx, actor, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "video-upload", state.CurrentStep)

	require.NoError(t, f.upload(t, "video", "pitch.mp4", "video"))
	state, err = f.svc.Next(ctx, actor, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "portfolio-upload", state.CurrentStep)
	assert.True(t, state.CanSubmit)

	state, err = f.svc.Next(ctx, actor, "app-1")
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, "submitted", state.CurrentStep)
	assert.Equal(t, models.TryoutSubmitted, f.repo.subs["app-1"].Status)
	require.NotNil(t, f.repo.subs["app-1"].SubmittedAt)
	assert.Equal(t, models.ApplicationSubmitted, f.apps.apps["app-1"].Status)

	err = f.upload(t, "portfolio", "extra.zip", "late")
	assert.ErrorIs(t, err, appErrors.ErrFinalized)
	_, err = f.svc.Back(ctx, actor, "app-1")
	assert.ErrorIs(t, err, appErrors.ErrFinalized)
}

func TestTryoutServiceSubmitNeedsProposalAndVideo(t *testing.T) {
	f := newTryoutFixture(false)
	require.NoError(t, f.upload(t, "video", "pitch.mp4", "video"))

	_, err := f.svc.Submit(context.Background(), student("stu-1"), "app-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{"proposal"}, fieldsOf(t, err))
	assert.Equal(t, models.TryoutPending, f.repo.subs["app-1"].Status)
	assert.Equal(t, models.ApplicationDraft, f.apps.apps["app-1"].Status)
}

func TestTryoutServiceClearRemovesReference(t *testing.T) {
	f := newTryoutFixture(false)
	require.NoError(t, f.upload(t, "portfolio", "work.zip", "zip bytes"))

	state, err := f.svc.Clear(context.Background(), student("stu-1"), "app-1", "portfolio")
	require.NoError(t, err)
	assert.Nil(t, state.Submission.PortfolioRef)
	assert.Empty(t, f.store.objects)

	_, err = f.svc.Clear(context.Background(), student("stu-1"), "app-1", "transcript")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTryoutServiceProfessorCannotUpload(t *testing.T) {
	f := newTryoutFixture(false)

	_, err := f.svc.Upload(context.Background(), professor("prof-1"), "app-1", "proposal", "plan.pdf", strings.NewReader("plan"), 4)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTryoutServiceFailedApplicationSubmitKeepsBundlePending(t *testing.T) {
	f := newTryoutFixture(false)
	ctx := context.Background()
	require.NoError(t, f.upload(t, "proposal", "plan.pdf", "plan"))
	require.NoError(t, f.upload(t, "video", "pitch.mp4", "video"))
	f.apps.submitErr = fmt.Errorf("db down")

	_, err := f.svc.Submit(ctx, student("stu-1"), "app-1")
	assert.ErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.Equal(t, models.TryoutPending, f.repo.subs["app-1"].Status)
	assert.Nil(t, f.repo.subs["app-1"].SubmittedAt)
	assert.Equal(t, models.ApplicationDraft, f.apps.apps["app-1"].Status)

	f.apps.submitErr = nil
	state, err := f.svc.Submit(ctx, student("stu-1"), "app-1")
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, models.TryoutSubmitted, f.repo.subs["app-1"].Status)
	assert.Equal(t, models.ApplicationSubmitted, f.apps.apps["app-1"].Status)
}

func TestTryoutServiceRetriesBundleSaveAfterApplicationSubmitted(t *testing.T) {
	f := newTryoutFixture(false)
	ctx := context.Background()
	require.NoError(t, f.upload(t, "proposal", "plan.pdf", "plan"))
	require.NoError(t, f.upload(t, "video", "pitch.mp4", "video"))
	f.repo.upsertErr = fmt.Errorf("db down")

	_, err := f.svc.Submit(ctx, student("stu-1"), "app-1")
	assert.ErrorIs(t, err, appErrors.ErrSaveFailed)
	assert.Equal(t, models.TryoutPending, f.repo.subs["app-1"].Status)
	assert.Equal(t, models.ApplicationSubmitted, f.apps.apps["app-1"].Status)

	f.repo.upsertErr = nil
	state, err := f.svc.Submit(ctx, student("stu-1"), "app-1")
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, models.TryoutSubmitted, f.repo.subs["app-1"].Status)
}
