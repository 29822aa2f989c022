package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type knowledgeRepository struct {
	store *Store
}

func (r *knowledgeRepository) CreateDocument(ctx context.Context, doc *entity.KnowledgeDocument) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.CreateDocument"); err != nil {
		return err
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	s.documents[doc.Id] = *doc
	return nil
}

func (r *knowledgeRepository) FindDocument(ctx context.Context, scope entity.KnowledgeScope, specs ...specification.Specification) (*entity.KnowledgeDocument, error) {
	docs, err := r.FindDocuments(ctx, scope, specs...)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (r *knowledgeRepository) FindDocuments(ctx context.Context, scope entity.KnowledgeScope, specs ...specification.Specification) ([]*entity.KnowledgeDocument, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.FindDocuments"); err != nil {
		return nil, err
	}
	all := append([]specification.Specification{specification.InScope{Scope: scope}}, specs...)
	var out []*entity.KnowledgeDocument
	for _, d := range s.documents {
		ok, err := matchDocument(&d, all)
		if err != nil {
			return nil, err
		}
		if ok {
			found := d
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *knowledgeRepository) CountDocuments(ctx context.Context, specs ...specification.Specification) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, d := range s.documents {
		ok, err := matchDocument(&d, specs)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (r *knowledgeRepository) UpdateDocumentContent(ctx context.Context, scope entity.KnowledgeScope, doc *entity.KnowledgeDocument) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.UpdateDocumentContent"); err != nil {
		return false, err
	}
	existing, ok := s.documents[doc.Id]
	if !ok || !scope.Owns(&existing) {
		return false, nil
	}
	existing.Filename = doc.Filename
	existing.Content = doc.Content
	existing.WordCount = doc.WordCount
	existing.Status = entity.DocumentStatusPending
	existing.FailureReason = nil
	existing.UpdatedAt = time.Now()
	s.documents[doc.Id] = existing
	return true, nil
}

func (r *knowledgeRepository) SetDocumentStatus(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID, status entity.DocumentStatus, reason *string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.SetDocumentStatus"); err != nil {
		return err
	}
	d, ok := s.documents[id]
	if !ok || !scope.Owns(&d) {
		return nil
	}
	d.Status = status
	d.FailureReason = reason
	d.UpdatedAt = time.Now()
	s.documents[id] = d
	return nil
}

func (r *knowledgeRepository) DeleteDocument(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.DeleteDocument"); err != nil {
		return false, err
	}
	for cid, c := range s.chunks {
		if c.DocumentId == id && c.WorkspaceId == scope.WorkspaceId() && c.OwnerId == scope.OwnerId() {
			delete(s.chunks, cid)
		}
	}
	d, ok := s.documents[id]
	if !ok || !scope.Owns(&d) {
		return false, nil
	}
	delete(s.documents, id)
	return true, nil
}

func (r *knowledgeRepository) CreateChunk(ctx context.Context, chunk *entity.KnowledgeChunk) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.CreateChunk"); err != nil {
		return err
	}
	chunk.CreatedAt = time.Now()
	c := *chunk
	c.Embedding = append([]float32(nil), chunk.Embedding...)
	s.chunks[chunk.Id] = c
	return nil
}

func (r *knowledgeRepository) DeleteChunks(ctx context.Context, scope entity.KnowledgeScope, documentId uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.DeleteChunks"); err != nil {
		return err
	}
	for id, c := range s.chunks {
		if c.DocumentId == documentId && c.WorkspaceId == scope.WorkspaceId() && c.OwnerId == scope.OwnerId() {
			delete(s.chunks, id)
		}
	}
	return nil
}

func (r *knowledgeRepository) CountChunks(ctx context.Context, specs ...specification.Specification) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.chunks {
		ok, err := matchChunk(&c, specs)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (r *knowledgeRepository) SearchSimilar(ctx context.Context, scope entity.KnowledgeScope, embedding []float32, limit int, threshold float64) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("knowledge.SearchSimilar"); err != nil {
		return nil, err
	}
	var out []*entity.ScoredChunk
	for _, c := range s.chunks {
		if c.WorkspaceId != scope.WorkspaceId() || c.OwnerId != scope.OwnerId() {
			continue
		}
		d, ok := s.documents[c.DocumentId]
		if !ok || !scope.Owns(&d) || d.Status != entity.DocumentStatusIndexed {
			continue
		}
		sim := cosine(c.Embedding, embedding)
		if sim < threshold {
			continue
		}
		found := c
		out = append(out, &entity.ScoredChunk{Chunk: &found, Filename: d.Filename, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
