package database

import (
	"time"

	"github.com/edgeee/excuse-generator/api"
	"github.com/uptrace/bun"
)

// An excuse represents an excuse in the database.
type excuse struct {
	bun.BaseModel `bun:"table:excuses,alias:e"`

	ID          string    `bun:",pk"`
	Tone        string    `bun:",notnull"`
	ExcuseText  string    `bun:"excuse_text,notnull"`
	ExcuseTips  string    `bun:"excuse_tips,nullzero"`
	LikesCount  int       `bun:",notnull"`
	SharesCount int       `bun:",notnull"`
	CopiesCount int       `bun:",notnull"`
	CreatedAt   time.Time `bun:",notnull"`
	UserID      string    `bun:",nullzero"`
}

type interaction struct {
	bun.BaseModel `bun:"table:interactions,alias:i"`

	ID              string    `bun:",pk"`
	ExcuseID        string    `bun:",notnull"`
	UserID          string    `bun:",nullzero"`
	InteractionType string    `bun:",notnull"`
	CreatedAt       time.Time `bun:",notnull"`
}

func (e excuse) APIExcuse() api.Excuse {
	return api.Excuse{
		ID:          e.ID,
		Tone:        api.Tone(e.Tone),
		Text:        e.ExcuseText,
		Tips:        e.ExcuseTips,
		LikesCount:  e.LikesCount,
		SharesCount: e.SharesCount,
		CopiesCount: e.CopiesCount,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt,
	}
}

func (i interaction) APIInteraction() api.Interaction {
	return api.Interaction{
		ID:        i.ID,
		ExcuseID:  i.ExcuseID,
		UserID:    i.UserID,
		Type:      api.InteractionType(i.InteractionType),
		CreatedAt: i.CreatedAt,
	}
}

// counter returns the value of c on the row.
func (e excuse) counter(c api.Counter) int {
	switch c {
	case api.CounterShares:
		return e.SharesCount
	case api.CounterCopies:
		return e.CopiesCount
	default:
		return e.LikesCount
	}
}
