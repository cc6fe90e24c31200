package models

// Image ссылка на изображение во внешнем хранилище.
type Image struct {
	ID  string `json:"public_id"`
	URL string `json:"url"`
}

// IsZero сообщает, что изображение не задано.
func (i Image) IsZero() bool {
	return i.ID == ""
}
