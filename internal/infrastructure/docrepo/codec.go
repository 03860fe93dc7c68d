package docrepo

import (
	"time"

	"github.com/movemate/movesync/internal/docstore"
	"github.com/movemate/movesync/internal/domain/entity"
)

// Field names are the wire schema of the document store; this layer owns them.

func profileToDoc(p *entity.Profile) docstore.Document {
	return docstore.Document{
		"subjectId":       p.SubjectID,
		"kind":            string(p.Kind),
		"name":            p.Name,
		"phone":           p.Phone,
		"email":           p.Email,
		"city":            p.City,
		"area":            p.Area,
		"profileImageUrl": p.ProfileImageURL,
		"truckType":       p.TruckType,
		"truckCapacity":   p.TruckCapacity,
		"workingHours":    p.WorkingHours,
		"isAvailable":     p.IsAvailable,
		"vehicleImages":   p.VehicleImages,
		"createdAt":       p.CreatedAt.UnixMilli(),
		"updatedAt":       p.UpdatedAt.UnixMilli(),
	}
}

func profileFromDoc(doc docstore.Document) *entity.Profile {
	return &entity.Profile{
		SubjectID:       docString(doc, "subjectId"),
		Kind:            entity.ProfileKind(docString(doc, "kind")),
		Name:            docString(doc, "name"),
		Phone:           docString(doc, "phone"),
		Email:           docString(doc, "email"),
		City:            docString(doc, "city"),
		Area:            docString(doc, "area"),
		ProfileImageURL: docString(doc, "profileImageUrl"),
		TruckType:       docString(doc, "truckType"),
		TruckCapacity:   docString(doc, "truckCapacity"),
		WorkingHours:    docString(doc, "workingHours"),
		IsAvailable:     docBool(doc, "isAvailable"),
		VehicleImages:   docStrings(doc, "vehicleImages"),
		CreatedAt:       docMillis(doc, "createdAt"),
		UpdatedAt:       docMillis(doc, "updatedAt"),
	}
}

func reviewToDoc(r *entity.Review) docstore.Document {
	return docstore.Document{
		"id":             r.ID,
		"subjectId":      r.SubjectID,
		"authorId":       r.AuthorID,
		"authorName":     r.AuthorName,
		"authorImageUrl": r.AuthorImageURL,
		"rating":         r.Rating,
		"comment":        r.Comment,
		"createdAt":      r.CreatedAt.UnixMilli(),
	}
}

func reviewFromDoc(doc docstore.Document) entity.Review {
	return entity.Review{
		ID:             docString(doc, "id"),
		SubjectID:      docString(doc, "subjectId"),
		AuthorID:       docString(doc, "authorId"),
		AuthorName:     docString(doc, "authorName"),
		AuthorImageURL: docString(doc, "authorImageUrl"),
		Rating:         docFloat(doc, "rating"),
		Comment:        docString(doc, "comment"),
		CreatedAt:      docMillis(doc, "createdAt"),
	}
}

func docString(doc docstore.Document, field string) string {
	s, _ := doc[field].(string)
	return s
}

func docBool(doc docstore.Document, field string) bool {
	b, _ := doc[field].(bool)
	return b
}

// docFloat tolerates both native numerics and json-decoded float64.
func docFloat(doc docstore.Document, field string) float64 {
	switch n := doc[field].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func docMillis(doc docstore.Document, field string) time.Time {
	ms := int64(docFloat(doc, field))
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func docStrings(doc docstore.Document, field string) []string {
	switch v := doc[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
