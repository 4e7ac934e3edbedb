package conflicts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// ShippingExclusivity flags pathways that pair the same character into more
// than one exclusive relationship.
//
// A relationship tag declares its participants in Metadata["characters"],
// comma-separated. Relationships are exclusive by default; a tag opts out
// with Metadata["exclusive"] = "false", which is how poly and open
// arrangements coexist.
func ShippingExclusivity() ports.Heuristic {
	return shippingHeuristic{}
}

type shippingHeuristic struct{}

func (shippingHeuristic) Name() string { return "shipping_exclusivity" }

func (shippingHeuristic) Inspect(ctx context.Context, in ports.HeuristicInput) []domain.Conflict {
	if ctx.Err() != nil {
		return nil
	}

	// character -> IDs of exclusive relationship tags naming them
	byCharacter := map[string][]string{}
	for _, id := range in.Pathway.TagIDs {
		tag, ok := in.Snapshot.TagByID(id)
		if !ok {
			continue
		}
		raw := tag.Metadata["characters"]
		if raw == "" || tag.Metadata["exclusive"] == "false" {
			continue
		}
		for _, name := range splitCharacters(raw) {
			byCharacter[name] = append(byCharacter[name], tag.ID)
		}
	}

	characters := make([]string, 0, len(byCharacter))
	for name := range byCharacter {
		characters = append(characters, name)
	}
	sort.Strings(characters)

	var out []domain.Conflict
	for _, name := range characters {
		tags := byCharacter[name]
		if len(tags) < 2 {
			continue
		}
		sort.Strings(tags)
		out = append(out, domain.Conflict{
			Source: "shipping_exclusivity",
			Level:  domain.ConflictError,
			Message: fmt.Sprintf("character %q is paired into %d exclusive relationships: %s",
				name, len(tags), strings.Join(tags, ", ")),
			Subjects: tags,
		})
	}
	return out
}

func splitCharacters(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.ToLower(strings.TrimSpace(p))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
