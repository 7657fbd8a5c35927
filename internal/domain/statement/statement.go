package statement

import (
	"fmt"
	"sort"

	"github.com/opinionmap/opinionmap/internal/domain"
)

// ModerationState is the moderation classification of a statement.
type ModerationState int

const (
	Rejected    ModerationState = -1
	Unmoderated ModerationState = 0
	Approved    ModerationState = 1
)

func (m ModerationState) String() string {
	switch m {
	case Rejected:
		return "rejected"
	case Unmoderated:
		return "unmoderated"
	case Approved:
		return "approved"
	default:
		return fmt.Sprintf("ModerationState(%d)", int(m))
	}
}

// Mode selects which moderation states count as active.
type Mode string

const (
	// ModeUnset refuses to compute an active set.
	ModeUnset Mode = ""
	// ModeStrict keeps explicitly approved statements only.
	ModeStrict Mode = "strict"
	// ModeLenient keeps everything that was not explicitly rejected.
	ModeLenient Mode = "lenient"
)

var (
	// ErrModerationModeUnset is returned when the active set is requested
	// before a moderation mode was supplied.
	ErrModerationModeUnset = fmt.Errorf("%w: moderation mode must be set to filter for active statements", domain.ErrConfiguration)
	// ErrUnknownMode is returned for mode strings other than strict or lenient.
	ErrUnknownMode = fmt.Errorf("%w: unknown moderation mode", domain.ErrConfiguration)
	// ErrUnknownModeration is returned for moderation states outside -1..1.
	ErrUnknownModeration = fmt.Errorf("%w: unknown moderation state", domain.ErrConfiguration)
)

// ParseMode parses a mode flag. The empty string yields ModeUnset.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUnset, ModeStrict, ModeLenient:
		return Mode(s), nil
	default:
		return ModeUnset, fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Statement is the metadata of one statement participants vote on.
type Statement struct {
	ID         int             `json:"tid"`
	Moderation ModerationState `json:"mod"`
	IsMeta     bool            `json:"is_meta"`
	Text       string          `json:"txt,omitempty"`
}

// Validate checks the moderation state and id.
func (s Statement) Validate() error {
	if s.ID < 0 {
		return fmt.Errorf("%w: negative statement id %d", domain.ErrConfiguration, s.ID)
	}
	switch s.Moderation {
	case Rejected, Unmoderated, Approved:
		return nil
	default:
		return fmt.Errorf("%w %d on statement %d", ErrUnknownModeration, int(s.Moderation), s.ID)
	}
}

// ActiveIDs returns the ids of statements active under mode, ascending.
func ActiveIDs(statements []Statement, mode Mode) ([]int, error) {
	var accept func(ModerationState) bool
	switch mode {
	case ModeStrict:
		accept = func(m ModerationState) bool { return m == Approved }
	case ModeLenient:
		accept = func(m ModerationState) bool { return m == Approved || m == Unmoderated }
	case ModeUnset:
		return nil, ErrModerationModeUnset
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, string(mode))
	}

	ids := make([]int, 0, len(statements))
	for _, s := range statements {
		if accept(s.Moderation) {
			ids = append(ids, s.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}
