package garments

import (
	"sort"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// SortNewestFirst orders garments newest first: by server timestamp seconds
// when both have one, then by local epoch, then by id descending.
//
// Mixing resolved and unresolved timestamps can make the comparison
// intransitive, so the input is first put in id order. The result then
// depends only on the set of garments, not on the order they arrived in.
func SortNewestFirst(items []models.UserGarment) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	sort.SliceStable(items, func(i, j int) bool { return newer(items[i], items[j]) })
}

func newer(a, b models.UserGarment) bool {
	if a.CreatedAt != nil && b.CreatedAt != nil {
		as, bs := a.CreatedAt.Unix(), b.CreatedAt.Unix()
		if as != bs {
			return as > bs
		}
	}
	if a.CreatedAtLocal != b.CreatedAtLocal {
		return a.CreatedAtLocal > b.CreatedAtLocal
	}
	return a.ID > b.ID
}
