package catalog

import (
	"github.com/franz/music-catalog/internal/textkey"
)

// genericLinkLabel is the placeholder label sources emit when they know a
// platform but not what to call the link.
const genericLinkLabel = "Link"

// MergeLinks unions two link sets, de-duplicated by normalized platform
// key. For a platform present on both sides the existing record wins,
// except that an empty URL is filled from the incoming side and a label
// that carries no information (empty, the bare platform key, or the
// generic "Link" placeholder) is replaced by a more specific incoming
// one. Pure and idempotent; existing entries keep their order, new
// platforms append in incoming order.
func MergeLinks(existing, incoming []Link) []Link {
	out := make([]Link, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, l := range existing {
		key := textkey.PlatformKey(l.Platform)
		if pos, ok := index[key]; ok {
			// Existing side itself may carry duplicates; fold them
			out[pos] = mergeLinkPair(out[pos], l)
			continue
		}
		index[key] = len(out)
		out = append(out, l)
	}

	for _, l := range incoming {
		key := textkey.PlatformKey(l.Platform)
		if pos, ok := index[key]; ok {
			out[pos] = mergeLinkPair(out[pos], l)
			continue
		}
		index[key] = len(out)
		out = append(out, l)
	}

	return out
}

// mergeLinkPair combines two links for the same platform, keeping the
// existing record and filling its gaps from the incoming one.
func mergeLinkPair(existing, incoming Link) Link {
	if existing.URL == "" && incoming.URL != "" {
		existing.URL = incoming.URL
	}
	if incoming.Label != "" && isGenericLabel(existing) {
		existing.Label = incoming.Label
	}
	return existing
}

// isGenericLabel reports whether a link's label carries no information
// beyond the platform itself.
func isGenericLabel(l Link) bool {
	if l.Label == "" || l.Label == genericLinkLabel {
		return true
	}
	return textkey.PlatformKey(l.Label) == textkey.PlatformKey(l.Platform)
}

// MergeEmbeds unions two embed sets, de-duplicated by the pair
// (platform key, url). Two embeds are the same resource only when both
// platform and URL match; a platform may offer several distinct playable
// resources (indexed playlist positions), so differing URLs both survive.
func MergeEmbeds(existing, incoming []Embed) []Embed {
	type embedKey struct {
		platform string
		url      string
	}

	out := make([]Embed, 0, len(existing)+len(incoming))
	seen := make(map[embedKey]bool, len(existing))

	add := func(e Embed) {
		key := embedKey{platform: textkey.PlatformKey(e.Platform), url: e.URL}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}

	for _, e := range existing {
		add(e)
	}
	for _, e := range incoming {
		add(e)
	}

	return out
}
