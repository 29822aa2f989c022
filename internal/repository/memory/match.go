package memory

import (
	"fmt"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func unsupported(spec specification.Specification) error {
	return fmt.Errorf("memory: unsupported specification %T", spec)
}

func matchAccount(a *entity.Account, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		var ok bool
		switch sp := spec.(type) {
		case specification.ByID:
			ok = a.Id == sp.ID
		case specification.InWorkspace:
			ok = a.WorkspaceId != nil && *a.WorkspaceId == sp.WorkspaceID
		default:
			return false, unsupported(spec)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchWorkspace(w *entity.Workspace, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		var ok bool
		switch sp := spec.(type) {
		case specification.ByID:
			ok = w.Id == sp.ID
		default:
			return false, unsupported(spec)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchDocument(d *entity.KnowledgeDocument, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		var ok bool
		switch sp := spec.(type) {
		case specification.ByID:
			ok = d.Id == sp.ID
		case specification.InWorkspace:
			ok = d.WorkspaceId == sp.WorkspaceID
		case specification.InScope:
			ok = sp.Scope.Owns(d)
		default:
			return false, unsupported(spec)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchChunk(c *entity.KnowledgeChunk, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		var ok bool
		switch sp := spec.(type) {
		case specification.ByID:
			ok = c.Id == sp.ID
		case specification.ByDocumentID:
			ok = c.DocumentId == sp.DocumentID
		case specification.InWorkspace:
			ok = c.WorkspaceId == sp.WorkspaceID
		case specification.InScope:
			ok = c.WorkspaceId == sp.Scope.WorkspaceId() && c.OwnerId == sp.Scope.OwnerId()
		default:
			return false, unsupported(spec)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchOrder(o *entity.Order, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		var ok bool
		switch sp := spec.(type) {
		case specification.ByID:
			ok = o.Id == sp.ID
		case specification.ByAccountID:
			ok = o.AccountId == sp.AccountID
		case specification.ByPaymentReference:
			ok = o.PaymentReference != nil && *o.PaymentReference == sp.Reference
		default:
			return false, unsupported(spec)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
