package tasksvc

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID          string   `json:"id" gorm:"primaryKey"`
	OwnerID     string   `json:"-" gorm:"index;not null"`
	Title       string   `json:"title" gorm:"not null"`
	Description *string  `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"dueDate"`
	IsCompleted bool     `json:"isCompleted"`
}

// Fields holds the client-editable part of a task. The owner and the id
// are deliberately absent.
type Fields struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"dueDate"`
	IsCompleted bool     `json:"isCompleted"`
}

// Validate checks the fields a client may send.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if !f.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidArgument, f.Priority)
	}
	return nil
}

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day. It is encoded as
// "2006-01-02" both in JSON and in the database.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: bad date %q", ErrInvalidArgument, s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidArgument)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	}
	return fmt.Errorf("cannot scan %T into Date", value)
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (Date) GormDataType() string {
	return "date"
}

type TaskRepository interface {
	Find(ctx context.Context, id string) (Task, error)
	FindAll(ctx context.Context, ownerID string) ([]Task, error)
	Create(ctx context.Context, task Task) error
	// Update overwrites the mutable columns of the task with the same id
	// and owner.
	Update(ctx context.Context, task Task) error
	Delete(ctx context.Context, ownerID, id string) error
}

// Auth identifies the caller of a task operation. It is built only from a
// validated access token.
type Auth struct {
	UserID   string
	UserName string
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTaskNotFound    = errors.New("task not found")
	ErrAuthMissing     = errors.New("caller identity was not passed through the context")
)
