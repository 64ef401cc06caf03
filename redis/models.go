package redis

import (
	"time"

	"github.com/edgeee/excuse-generator/api"
)

// An excuse represents a cached leaderboard entry. Times are stored as unix
// nanoseconds.
type excuse struct {
	ID          string `redis:"id"`
	Tone        string `redis:"tone"`
	Text        string `redis:"excuse_text"`
	Tips        string `redis:"excuse_tips"`
	LikesCount  int    `redis:"likes_count"`
	SharesCount int    `redis:"shares_count"`
	CopiesCount int    `redis:"copies_count"`
	UserID      string `redis:"user_id"`
	CreatedAt   int64  `redis:"created_at"`
}

func fromAPIExcuse(e api.Excuse) *excuse {
	return &excuse{
		ID:          e.ID,
		Tone:        string(e.Tone),
		Text:        e.Text,
		Tips:        e.Tips,
		LikesCount:  e.LikesCount,
		SharesCount: e.SharesCount,
		CopiesCount: e.CopiesCount,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt.UnixNano(),
	}
}

func (e excuse) APIExcuse() api.Excuse {
	return api.Excuse{
		ID:          e.ID,
		Tone:        api.Tone(e.Tone),
		Text:        e.Text,
		Tips:        e.Tips,
		LikesCount:  e.LikesCount,
		SharesCount: e.SharesCount,
		CopiesCount: e.CopiesCount,
		UserID:      e.UserID,
		CreatedAt:   time.Unix(0, e.CreatedAt).UTC(),
	}
}
