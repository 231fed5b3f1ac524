package service

import (
	"fmt"
	"strings"

	"github.com/clusivai/clusivai/internal/domain"
	"github.com/clusivai/clusivai/internal/storage"
)

type NoteService struct {
	storage *storage.Storage
}

func NewNoteService(s *storage.Storage) *NoteService {
	return &NoteService{storage: s}
}

func (s *NoteService) Create(ownerID int64, content string) (*domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("note content cannot be empty")
	}
	note := &domain.Note{OwnerID: ownerID, Content: content}
	if err := s.storage.CreateNote(note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *NoteService) List(ownerID int64) ([]*domain.Note, error) {
	return s.storage.ListNotesByOwner(ownerID)
}

func (s *NoteService) Update(ownerID, id int64, content string) (bool, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return false, nil
	}
	return s.storage.UpdateNote(ownerID, id, content)
}

func (s *NoteService) Delete(ownerID, id int64) (bool, error) {
	return s.storage.DeleteNote(ownerID, id)
}

// FormatList renders notes for a chat message.
func (s *NoteService) FormatList(notes []*domain.Note) string {
	if len(notes) == 0 {
		return "No tienes notas guardadas."
	}
	var sb strings.Builder
	sb.WriteString("🗒 Tus notas:\n\n")
	for _, n := range notes {
		sb.WriteString(fmt.Sprintf("• #%d: %s\n", n.ID, n.Content))
	}
	return sb.String()
}
