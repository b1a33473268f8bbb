package streak

import (
	"errors"
	"fmt"

	"github.com/julianstephens/streakr/internal/constants"
)

var ErrInvalidLadder = errors.New("invalid milestone ladder")

// Ladder is the ascending list of streak lengths that earn an achievement.
type Ladder []int

// DefaultLadder returns the built-in milestones.
func DefaultLadder() Ladder {
	return Ladder(constants.DefaultMilestones())
}

// NewLadder validates milestones and returns them as a Ladder.
func NewLadder(milestones []int) (Ladder, error) {
	l := Ladder(append([]int(nil), milestones...))
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks that the ladder is non-empty, positive and strictly ascending.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: no milestones", ErrInvalidLadder)
	}
	for i, m := range l {
		if m <= 0 {
			return fmt.Errorf("%w: milestone %d must be positive", ErrInvalidLadder, m)
		}
		if i > 0 && m <= l[i-1] {
			return fmt.Errorf("%w: milestones must be strictly ascending (%d after %d)", ErrInvalidLadder, m, l[i-1])
		}
	}
	return nil
}

// Detect returns the milestone crossed by a streak moving from oldStreak to
// newStreak. When one transition crosses several thresholds (history imported
// in bulk, a backdated start) only the lowest newly crossed threshold is
// returned; the skipped ones are not awarded later.
func (l Ladder) Detect(oldStreak, newStreak int) (int, bool) {
	for _, m := range l {
		if oldStreak < m && m <= newStreak {
			return m, true
		}
	}
	return 0, false
}

// Next returns the first milestone above streak.
func (l Ladder) Next(streak int) (int, bool) {
	for _, m := range l {
		if m > streak {
			return m, true
		}
	}
	return 0, false
}
