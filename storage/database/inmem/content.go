package inmemdb

import (
	"context"

	"github.com/onboardme/backend/core/content"
)

type contentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{db: db}
}

func (repo *contentRepository) CreateContent(_ context.Context, c content.SectionContent) (content.SectionContent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sectionID := c.ContentSectionID()
	if _, ok := repo.db.contents[sectionID]; ok {
		return nil, content.ErrAlreadyExists
	}

	switch v := c.(type) {
	case *content.Video:
		cp := *v
		cp.ID = repo.db.nextID()
		c = &cp
	case *content.Document:
		cp := *v
		cp.ID = repo.db.nextID()
		c = &cp
	case *content.Image:
		cp := *v
		cp.ID = repo.db.nextID()
		c = &cp
	case *content.Exam:
		cp := *v
		cp.ID = repo.db.nextID()
		cp.Questions = make([]content.ExamQuestion, len(v.Questions))
		copy(cp.Questions, v.Questions)
		for i := range cp.Questions {
			cp.Questions[i].ID = repo.db.nextID()
			opts := make([]content.ExamOption, len(cp.Questions[i].Options))
			copy(opts, cp.Questions[i].Options)
			for j := range opts {
				opts[j].ID = repo.db.nextID()
			}
			cp.Questions[i].Options = opts
		}
		c = &cp
	default:
		return nil, content.ErrUnknownType
	}

	repo.db.contents[sectionID] = c
	return c, nil
}

func (repo *contentRepository) GetContentBySectionID(_ context.Context, sectionID int) (content.SectionContent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.contents[sectionID]; ok {
		return c, nil
	}
	return nil, content.ErrNotFound
}
