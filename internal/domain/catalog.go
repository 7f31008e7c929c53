package domain

// Article is a catalog entry as served by the backend.
type Article struct {
	ID          string  `json:"id"`
	Code        string  `json:"codigo"`
	Description string  `json:"descripcion"`
	Price       float64 `json:"precio"`
	RubroID     int64   `json:"rubroId,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// Ref converts the article into the reference shape the draft store accepts.
func (a Article) Ref() ArticleRef {
	return ArticleRef{
		ArticleID: a.ID,
		Code:      a.Code,
		Name:      a.Description,
		UnitPrice: a.Price,
	}
}

// Rubro is a catalog category.
type Rubro struct {
	ID          int64  `json:"id"`
	Descripcion string `json:"descripcion"`
}
