package theater

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("theater not found")
	ErrInvalidInput    = errors.New("invalid theater input")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

type Theater struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	SeatCount int       `json:"seatCount"`
	ManagerID *int      `json:"managerId"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (t Theater) Clone() Theater {
	if t.ManagerID != nil {
		id := *t.ManagerID
		t.ManagerID = &id
	}
	return t
}

// Input is the writable part of a theater as sent by clients.
type Input struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	SeatCount int    `json:"seatCount"`
	ManagerID *int   `json:"managerId,omitempty"`
}
