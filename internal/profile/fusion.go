package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

const (
	// Preference lists are capped most-recent-N to bound storage. This is
	// a tunable, not a correctness invariant; ranking runs off the signal
	// counters, which are unbounded per tag.
	maxPreferenceListLen = 50

	// Price-tier boundaries on the midpoint of the observed price range.
	budgetTierCeiling = 100.0
	premiumTierFloor  = 300.0
)

// Entity types the aggregator mines from chat turns.
const (
	entityTypeStyle = "style"
	entityTypeBrand = "brand"
)

// ApplyEvent applies one unified interaction event to a profile with the
// modality-specific update rule, then recomputes the learned preferences.
// The event must already be schema-valid; a mismatched payload is rejected
// without touching the profile.
func ApplyEvent(p *domain.UnifiedUserProfile, event *domain.UnifiedInteractionEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	switch event.Modality {
	case domain.ModalityClickStream:
		applyClickStream(p, event)
	case domain.ModalityAvatarChat:
		applyAvatarChat(p, event)
	default:
		return fmt.Errorf("%w: unrecognized modality %q", domain.ErrSchemaViolation, event.Modality)
	}

	p.Preferences.Learned = RecomputeLearned(p)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// applyClickStream mines the element details for style/brand/color tags and
// widens the observed price range.
func applyClickStream(p *domain.UnifiedUserProfile, event *domain.UnifiedInteractionEvent) {
	details := event.ClickStream.ElementDetails
	prefs := &p.Preferences.ClickStream

	for _, style := range details.Styles {
		appendUnique(&prefs.StylePreferences, style)
		noteMention(&p.Signals.StyleMentions, style, event.Timestamp)
	}
	for _, brand := range details.Brands {
		appendUnique(&prefs.BrandPreferences, brand)
		noteMention(&p.Signals.BrandMentions, brand, event.Timestamp)
	}
	for _, color := range details.Colors {
		appendUnique(&prefs.ColorPreferences, color)
	}

	if details.Price > 0 {
		if prefs.PriceRange.Max == 0 && prefs.PriceRange.Min == 0 {
			prefs.PriceRange = domain.PriceRange{Min: details.Price, Max: details.Price}
		} else {
			if details.Price < prefs.PriceRange.Min {
				prefs.PriceRange.Min = details.Price
			}
			if details.Price > prefs.PriceRange.Max {
				prefs.PriceRange.Max = details.Price
			}
		}
	}

	p.Signals.ClickStreamEvents++
}

// applyAvatarChat scans user turns for style/brand mentions in the intent
// label and the entities, and records sentiment verbatim. Avatar turns
// count toward interaction volume but contribute no preferences.
func applyAvatarChat(p *domain.UnifiedUserProfile, event *domain.UnifiedInteractionEvent) {
	chat := event.AvatarChat
	p.Signals.AvatarChatEvents++

	if chat.Speaker != domain.SpeakerUser {
		return
	}

	prefs := &p.Preferences.Conversation
	entitySeen := make(map[string]bool, len(chat.Entities))
	for _, entity := range chat.Entities {
		switch entity.Type {
		case entityTypeStyle:
			appendUnique(&prefs.MentionedStyles, entity.Value)
			noteMention(&p.Signals.StyleMentions, entity.Value, event.Timestamp)
			entitySeen[strings.ToLower(entity.Value)] = true
		case entityTypeBrand:
			appendUnique(&prefs.MentionedBrands, entity.Value)
			noteMention(&p.Signals.BrandMentions, entity.Value, event.Timestamp)
			entitySeen[strings.ToLower(entity.Value)] = true
		}
	}

	if chat.Intent != "" {
		mineIntent(p, prefs, chat.Intent, entitySeen, event.Timestamp)
	}

	if chat.Sentiment != nil {
		prefs.SentimentIndicators = append(prefs.SentimentIndicators, *chat.Sentiment)
	}
}

// mineIntent scans an intent label for tags the profile already knows.
// Intent carries no type information, so it can only reinforce styles and
// brands introduced through typed entities or click-stream tags; a tag
// already counted from this turn's entities is not counted twice.
func mineIntent(p *domain.UnifiedUserProfile, prefs *domain.ConversationPreferences, intent string, entitySeen map[string]bool, timestamp int64) {
	label := strings.ToLower(intent)

	for _, tag := range matchKnownTags(p.Signals.StyleMentions, entitySeen, label) {
		appendUnique(&prefs.MentionedStyles, tag)
		noteMention(&p.Signals.StyleMentions, tag, timestamp)
	}
	for _, tag := range matchKnownTags(p.Signals.BrandMentions, entitySeen, label) {
		appendUnique(&prefs.MentionedBrands, tag)
		noteMention(&p.Signals.BrandMentions, tag, timestamp)
	}
}

// matchKnownTags collects tags whose name occurs in the label. Matches are
// collected before the mention maps are mutated and sorted so counting is
// deterministic.
func matchKnownTags(mentions map[string]domain.MentionStat, entitySeen map[string]bool, label string) []string {
	var tags []string
	for tag := range mentions {
		lower := strings.ToLower(tag)
		if entitySeen[lower] {
			continue
		}
		if strings.Contains(label, lower) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// RecomputeLearned fuses the two modality-specific preference sets into the
// learned preferences. It is a pure function of the signal counters and the
// click-stream price range: styles and brands are the frequency-ranked
// union across both modalities with ties broken by most-recent mention, and
// the price tier is bucketed from click-stream prices only. Conversation
// data does not influence the price tier; price intent from free text is
// unreliable without NLU grounding.
func RecomputeLearned(p *domain.UnifiedUserProfile) domain.LearnedPreferences {
	return domain.LearnedPreferences{
		PreferredStyles:   rankMentions(p.Signals.StyleMentions),
		PreferredBrands:   rankMentions(p.Signals.BrandMentions),
		InferredPriceTier: inferPriceTier(p.Preferences.ClickStream.PriceRange),
	}
}

// rankMentions orders tags by combined frequency, then most-recent mention,
// then name. Event timestamps drive recency, so the ranking is independent
// of arrival order.
func rankMentions(mentions map[string]domain.MentionStat) []string {
	if len(mentions) == 0 {
		return nil
	}

	ranked := make([]string, 0, len(mentions))
	for tag := range mentions {
		ranked = append(ranked, tag)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := mentions[ranked[i]], mentions[ranked[j]]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.LastSeen != b.LastSeen {
			return a.LastSeen > b.LastSeen
		}
		return ranked[i] < ranked[j]
	})

	return ranked
}

func inferPriceTier(priceRange domain.PriceRange) domain.PriceTier {
	if priceRange.Max == 0 {
		return ""
	}

	midpoint := (priceRange.Min + priceRange.Max) / 2
	switch {
	case midpoint < budgetTierCeiling:
		return domain.PriceTierBudget
	case midpoint >= premiumTierFloor:
		return domain.PriceTierPremium
	default:
		return domain.PriceTierMidRange
	}
}

func appendUnique(list *[]string, value string) {
	if value == "" {
		return
	}
	for _, existing := range *list {
		if existing == value {
			return
		}
	}
	*list = append(*list, value)
	if len(*list) > maxPreferenceListLen {
		*list = (*list)[len(*list)-maxPreferenceListLen:]
	}
}

func noteMention(mentions *map[string]domain.MentionStat, tag string, timestamp int64) {
	if tag == "" {
		return
	}
	if *mentions == nil {
		*mentions = make(map[string]domain.MentionStat)
	}
	stat := (*mentions)[tag]
	stat.Count++
	if timestamp > stat.LastSeen {
		stat.LastSeen = timestamp
	}
	(*mentions)[tag] = stat
}
