// Package document implements patient file attachments: categorized uploads
// with a content-type allow-list, stored through the filestore and visible
// under the parent patient's row-scope.
package document

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a patient document.
type Category string

const (
	CategoryExameImagem       Category = "EXAME_IMAGEM"
	CategoryExameLaboratorial Category = "EXAME_LABORATORIAL"
	CategoryReceita           Category = "RECEITA"
	CategoryAtestado          Category = "ATESTADO"
	CategoryConsentimento     Category = "CONSENTIMENTO"
	CategoryAnamnese          Category = "ANAMNESE"
	CategoryRelatorioEvolucao Category = "RELATORIO_EVOLUCAO"
	CategoryOutros            Category = "OUTROS"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryExameImagem, CategoryExameLaboratorial, CategoryReceita,
		CategoryAtestado, CategoryConsentimento, CategoryAnamnese,
		CategoryRelatorioEvolucao, CategoryOutros:
		return true
	}
	return false
}

// MaxFileSize is the upload ceiling, enforced before any byte is persisted.
const MaxFileSize = 10 << 20

var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/tiff": true,
	"text/plain": true,
}

// AllowedContentType reports whether ct may be uploaded.
func AllowedContentType(ct string) bool {
	return allowedContentTypes[ct]
}

// Document is a stored patient file plus its metadata row.
type Document struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"-"`
	PatientID uuid.UUID `json:"patientId"`

	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`

	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	StorageKey  string `json:"-"`

	UploadedBy uuid.UUID `json:"uploadedBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
