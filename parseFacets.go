package bluecast

import (
	"regexp"

	"github.com/bluesky-social/indigo/api/bsky"
)

// FacetType identifies the type of rich text element in a post.
type FacetType int

const (
	UnknownFacetType FacetType = iota
	LinkFacet
	TagFacet
)

func (ft FacetType) String() string {
	switch ft {
	case LinkFacet:
		return "Link Facet"
	case TagFacet:
		return "Tag Facet"
	default:
		return "Unknown Facet"
	}
}

// Facet marks a hashtag or link span within post text. StartIndex and
// EndIndex are byte offsets into the UTF-8 encoding of the text, not rune
// counts; the service renders annotations against byte ranges.
type Facet struct {
	Type       FacetType `json:"type"`
	Target     string    `json:"target"`
	StartIndex int       `json:"startIndex"`
	EndIndex   int       `json:"endIndex"`
}

var (
	tagPattern  = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	linkPattern = regexp.MustCompile(`https?://\S+`)
)

// ParseFacets scans text for hashtags and bare URLs and returns their spans.
// Two independent passes run in fixed order, tags then links, each matching
// non-overlapping left to right. The passes do not coordinate: a URL whose
// fragment also looks like a hashtag yields both facets. That mirrors how
// the service's own clients behave, so it is deliberately not deduplicated.
func ParseFacets(text string) []Facet {
	var facets []Facet
	for _, span := range tagPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, Facet{
			Type:       TagFacet,
			Target:     text[span[0]+1 : span[1]], // drop the leading #
			StartIndex: span[0],
			EndIndex:   span[1],
		})
	}
	for _, span := range linkPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, Facet{
			Type:       LinkFacet,
			Target:     text[span[0]:span[1]],
			StartIndex: span[0],
			EndIndex:   span[1],
		})
	}
	return facets
}

// facetsToBsky converts parsed facets into the service's richtext form.
func facetsToBsky(facets []Facet) []*bsky.RichtextFacet {
	converted := make([]*bsky.RichtextFacet, 0, len(facets))
	for _, facet := range facets {
		elem := &bsky.RichtextFacet_Features_Elem{}
		switch facet.Type {
		case TagFacet:
			elem.RichtextFacet_Tag = &bsky.RichtextFacet_Tag{Tag: facet.Target}
		case LinkFacet:
			elem.RichtextFacet_Link = &bsky.RichtextFacet_Link{Uri: facet.Target}
		default:
			continue
		}
		converted = append(converted, &bsky.RichtextFacet{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(facet.StartIndex),
				ByteEnd:   int64(facet.EndIndex),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{elem},
		})
	}
	return converted
}
