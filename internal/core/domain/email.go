package domain

import "time"

// CategoryUnclassified is the category given to emails that could not be
// classified. It always exists and cannot be renamed or deleted.
const CategoryUnclassified = "Unclassified"

// DefaultCategories are seeded into a fresh store.
func DefaultCategories() []Category {
	return []Category{
		{Name: CategoryUnclassified, Description: "Emails that have not been classified"},
		{Name: "HR", Description: "Human resources, hiring, benefits and payroll"},
		{Name: "Project", Description: "Project updates, tasks and deliverables"},
		{Name: "Schedule", Description: "Meetings, events and calendar changes"},
		{Name: "Notice", Description: "Announcements and general notices"},
	}
}

// Email is a stored message together with its classification.
type Email struct {
	// ID is assigned by the store on creation.
	ID int64

	// Sender is the From address, if known.
	Sender string

	// Subject is the model-extracted subject, falling back to the provided one.
	Subject string

	// Body is the full, untruncated message text.
	Body string

	// Summary is the model-written summary or a fallback marker.
	Summary string

	// Category is the assigned category name.
	Category string

	// ExtractedDate is a date the model found in the body, verbatim.
	ExtractedDate *string

	// Status is completed unless classification was deferred.
	Status ClassificationStatus

	// CreatedAt is when the email was stored.
	CreatedAt time.Time
}

// IngestRequest carries a new email into the system.
type IngestRequest struct {
	Body    string
	Sender  string
	Subject string
}

// EmailFilter selects a page of emails.
type EmailFilter struct {
	// Category restricts results to one category. Empty means all.
	Category string

	// Limit is the page size (1..MaxListLimit).
	Limit int

	// Offset is the number of emails to skip.
	Offset int
}

// Paging limits for email listing.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalise clamps the limit and offset to their valid ranges.
func (f EmailFilter) Normalise() EmailFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Category is a classification label.
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// IsProtected reports whether the category is the built-in fallback.
func (c Category) IsProtected() bool {
	return c.Name == CategoryUnclassified
}

// CategoryNames returns the names of the given categories in order.
func CategoryNames(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}
