package drive

import "time"

// File is the metadata record of one stored object.
type File struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	StoragePath string    `json:"storage_path"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	IsStarred   bool      `json:"is_starred"`
	IsShared    bool      `json:"is_shared"`
	IsDeleted   bool      `json:"is_deleted"`
	PublicID    *string   `json:"public_id,omitempty"`
	PublicURL   *string   `json:"public_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Link returns the public URL or "" when the file has none.
func (f *File) Link() string {
	if f.PublicURL == nil {
		return ""
	}
	return *f.PublicURL
}
