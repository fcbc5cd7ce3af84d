package mapper

import (
	"strings"

	"kasbi-client/internal/dto"
	"kasbi-client/internal/entity"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(it dto.DocumentItem) entity.Document {
	return entity.Document{
		Id:         it.DocumentId.String(),
		Name:       it.DocumentName,
		UploadedAt: parseTime(it.TimeUpload),
		UploadedBy: it.User,
		Status:     m.Status(it.DocumentStatus),
	}
}

func (m *DocumentMapper) ToEntities(items []dto.DocumentItem) []entity.Document {
	docs := make([]entity.Document, 0, len(items))
	for _, it := range items {
		docs = append(docs, m.ToEntity(it))
	}
	return docs
}

// Status normalises case; unrecognised values are kept as-is and count as
// neither pending nor done.
func (m *DocumentMapper) Status(raw string) entity.DocumentStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return entity.DocumentStatusPending
	}
	return entity.DocumentStatus(s)
}
