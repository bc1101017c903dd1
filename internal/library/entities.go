package library

import "time"

// RoleAdmin is the user role that routes to the admin surface after login.
// Any other role routes to the reader surface.
const RoleAdmin = "admin"

// Record is implemented by every entity the remote API keys by identifier.
// Identifiers are opaque and only used for lookup, never computed locally.
type Record interface {
	RecordID() int
}

// Book as transmitted by the remote API. Category, Author and Publisher are
// populated when the server embeds the referenced records; the id_* fields
// are always present.
type Book struct {
	IDBook       int        `json:"id_book"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	RatingCounts int        `json:"rating_counts"`
	IDCategory   int        `json:"id_category"`
	IDAuthor     int        `json:"id_author"`
	IDPublisher  int        `json:"id_publisher"`
	Category     *Category  `json:"category,omitempty"`
	Author       *Author    `json:"author,omitempty"`
	Publisher    *Publisher `json:"publisher,omitempty"`
}

func (b Book) RecordID() int { return b.IDBook }

// AuthorName returns the embedded author's display name, or "" when the
// server did not embed the record.
func (b Book) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.AuthorName
}

// CategoryName returns the embedded category's display name, or "".
func (b Book) CategoryName() string {
	if b.Category == nil {
		return ""
	}
	return b.Category.CategoryName
}

type Category struct {
	IDCategory   int    `json:"id_category"`
	CategoryName string `json:"category_name"`
}

func (c Category) RecordID() int { return c.IDCategory }

type Author struct {
	IDAuthor   int    `json:"id_author"`
	AuthorName string `json:"author_name"`
}

func (a Author) RecordID() int { return a.IDAuthor }

type Publisher struct {
	IDPublisher   int    `json:"id_publisher"`
	PublisherName string `json:"publisher_name"`
}

func (p Publisher) RecordID() int { return p.IDPublisher }

// HistoryEntry is one reading-history record: a user/book association plus
// the time of reading.
type HistoryEntry struct {
	ID     int       `json:"id"`
	Book   *Book     `json:"book,omitempty"`
	ReadAt time.Time `json:"read_at"`
}

func (h HistoryEntry) RecordID() int { return h.ID }

// Profile is the reader-facing view of the authenticated account.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User is the account record returned alongside a token at login. Role
// decides the post-login destination.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session is the result of a successful credential exchange.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}
