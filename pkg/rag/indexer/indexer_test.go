package indexer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/pkg/retry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls  atomic.Int32
	failAt int32 // 1-based call number that fails, 0 never
	delay  time.Duration
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failAt != 0 && n >= f.failAt {
		return nil, errors.New("embedding service unavailable")
	}
	return []float32{1, 0, 0}, nil
}

var noRetry = retry.Policy{MaxTries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

func seedDocument(t *testing.T, store *memory.Store, content string) (entity.KnowledgeScope, *entity.KnowledgeDocument) {
	t.Helper()
	tc := &entity.TenantContext{UserId: uuid.New(), WorkspaceId: uuid.New()}
	scope := entity.ScopeFromTenant(tc)
	doc := &entity.KnowledgeDocument{
		Id:          uuid.New(),
		WorkspaceId: tc.WorkspaceId,
		OwnerId:     tc.UserId,
		Filename:    "faq.txt",
		Content:     content,
		Status:      entity.DocumentStatusPending,
	}
	require.NoError(t, store.NewUnitOfWork(context.Background()).KnowledgeRepository().CreateDocument(context.Background(), doc))
	return scope, doc
}

func documentState(t *testing.T, store *memory.Store, scope entity.KnowledgeScope, id uuid.UUID) (*entity.KnowledgeDocument, int64) {
	t.Helper()
	repo := store.NewUnitOfWork(context.Background()).KnowledgeRepository()
	doc, err := repo.FindDocument(context.Background(), scope, specification.ByID{ID: id})
	require.NoError(t, err)
	n, err := repo.CountChunks(context.Background(), specification.ByDocumentID{DocumentID: id})
	require.NoError(t, err)
	return doc, n
}

func TestIndexWritesChunksWithDocumentOwnership(t *testing.T) {
	store := memory.NewStore()
	scope, doc := seedDocument(t, store, strings.Repeat("a", 4000))
	ix := NewIndexer(store, &fakeEmbedder{}, logger.NewNopLogger()).WithRetryPolicy(noRetry)

	n, err := ix.Index(context.Background(), scope, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, chunks := documentState(t, store, scope, doc.Id)
	assert.Equal(t, entity.DocumentStatusIndexed, got.Status)
	assert.Equal(t, int64(3), chunks)

	inScope, err := store.NewUnitOfWork(context.Background()).KnowledgeRepository().
		CountChunks(context.Background(), specification.InScope{Scope: scope})
	require.NoError(t, err)
	assert.Equal(t, int64(3), inScope)
}

func TestIndexFailureIsAllOrNothing(t *testing.T) {
	store := memory.NewStore()
	scope, doc := seedDocument(t, store, strings.Repeat("b", 4000))
	ix := NewIndexer(store, &fakeEmbedder{failAt: 2}, logger.NewNopLogger()).WithRetryPolicy(noRetry)

	_, err := ix.Index(context.Background(), scope, doc.Id)
	assert.ErrorIs(t, err, ErrIndexingFailed)

	got, chunks := documentState(t, store, scope, doc.Id)
	assert.Equal(t, entity.DocumentStatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Contains(t, *got.FailureReason, "embedding chunk 1")
	assert.Equal(t, int64(0), chunks)
}

func TestIndexReplacesOldChunks(t *testing.T) {
	store := memory.NewStore()
	scope, doc := seedDocument(t, store, strings.Repeat("c", 4000))
	ix := NewIndexer(store, &fakeEmbedder{}, logger.NewNopLogger()).WithRetryPolicy(noRetry)

	_, err := ix.Index(context.Background(), scope, doc.Id)
	require.NoError(t, err)

	doc.Content = "short now"
	ok, err := store.NewUnitOfWork(context.Background()).KnowledgeRepository().UpdateDocumentContent(context.Background(), scope, doc)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := ix.Index(context.Background(), scope, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, chunks := documentState(t, store, scope, doc.Id)
	assert.Equal(t, int64(1), chunks)
}

func TestIndexOutsideScope(t *testing.T) {
	store := memory.NewStore()
	_, doc := seedDocument(t, store, "hello")
	other := entity.ScopeFromTenant(&entity.TenantContext{UserId: uuid.New(), WorkspaceId: doc.WorkspaceId})

	_, err := NewIndexer(store, &fakeEmbedder{}, logger.NewNopLogger()).Index(context.Background(), other, doc.Id)
	assert.ErrorIs(t, err, errs.ErrAccessDenied)
}

func TestConcurrentIndexRunsDoNotInterleave(t *testing.T) {
	store := memory.NewStore()
	scope, doc := seedDocument(t, store, strings.Repeat("d", 4000))
	ix := NewIndexer(store, &fakeEmbedder{delay: 5 * time.Millisecond}, logger.NewNopLogger()).WithRetryPolicy(noRetry)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := ix.Index(context.Background(), scope, doc.Id)
			assert.NoError(t, err)
			assert.Equal(t, 3, n)
		}()
	}
	wg.Wait()

	got, chunks := documentState(t, store, scope, doc.Id)
	assert.Equal(t, entity.DocumentStatusIndexed, got.Status)
	assert.Equal(t, int64(3), chunks)
	assert.Empty(t, ix.locks.held)
}

func TestStatusAndChunkWritesIgnoreForeignScope(t *testing.T) {
	store := memory.NewStore()
	scope, doc := seedDocument(t, store, strings.Repeat("e", 4000))
	_, err := NewIndexer(store, &fakeEmbedder{}, logger.NewNopLogger()).WithRetryPolicy(noRetry).
		Index(context.Background(), scope, doc.Id)
	require.NoError(t, err)

	repo := store.NewUnitOfWork(context.Background()).KnowledgeRepository()
	sameWorkspace := entity.ScopeFromTenant(&entity.TenantContext{UserId: uuid.New(), WorkspaceId: doc.WorkspaceId})
	otherWorkspace := entity.ScopeFromTenant(&entity.TenantContext{UserId: doc.OwnerId, WorkspaceId: uuid.New()})

	reason := "tampered"
	for _, foreign := range []entity.KnowledgeScope{sameWorkspace, otherWorkspace} {
		require.NoError(t, repo.SetDocumentStatus(context.Background(), foreign, doc.Id, entity.DocumentStatusFailed, &reason))
		require.NoError(t, repo.DeleteChunks(context.Background(), foreign, doc.Id))
	}

	got, chunks := documentState(t, store, scope, doc.Id)
	assert.Equal(t, entity.DocumentStatusIndexed, got.Status)
	assert.Nil(t, got.FailureReason)
	assert.Equal(t, int64(3), chunks)
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, SplitText("", 10, 2))
	assert.Equal(t, []string{"short"}, SplitText("short", 10, 2))

	chunks := SplitText("abcdefghij", 4, 1)
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)

	// multi-byte runes count once
	multi := strings.Repeat("é", 10)
	assert.Len(t, SplitText(multi, 10, 2), 1)
}
