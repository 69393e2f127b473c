package listing

// Glyph is the decoration a presentation layer attaches to a listing status.
type Glyph uint8

const (
	// GlyphNone means the status is shown without decoration.
	GlyphNone Glyph = iota
	// GlyphClosed flags listings whose deal has been closed one way or another.
	GlyphClosed
)

var decorations = [...]Glyph{
	StatusAvailable: GlyphNone,
	StatusPending:   GlyphNone,
	StatusSold:      GlyphNone,
	StatusCompleted: GlyphClosed,
	StatusCancelled: GlyphClosed,
}

// Fails to compile unless every status has a decoration.
var _ = [1]struct{}{}[len(decorations)-int(statusCount)]

// Decoration returns the glyph for s. Invalid statuses get no decoration.
func (s Status) Decoration() Glyph {
	if !s.Valid() {
		return GlyphNone
	}
	return decorations[s]
}

func (g Glyph) String() string {
	switch g {
	case GlyphClosed:
		return "closed"
	default:
		return ""
	}
}
