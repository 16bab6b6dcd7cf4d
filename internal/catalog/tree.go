package catalog

import (
	"sort"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

// CategoryTree indexe les catégories par parent. Les enfants sont maintenus
// par l'arbre, la catégorie ne connaît que son parent.
type CategoryTree struct {
	byID     map[int64]models.Category
	children map[int64][]int64
	roots    []int64
}

// NewCategoryTree refuse les parents inconnus et les cycles
func NewCategoryTree(categories []models.Category) (*CategoryTree, error) {
	t := &CategoryTree{
		byID:     make(map[int64]models.Category, len(categories)),
		children: make(map[int64][]int64),
	}
	for _, c := range categories {
		if _, dup := t.byID[c.ID]; dup {
			return nil, apperr.Validation("catégorie %d dupliquée", c.ID)
		}
		t.byID[c.ID] = c
	}

	for _, c := range categories {
		if c.ParentID == nil {
			t.roots = append(t.roots, c.ID)
			continue
		}
		if _, ok := t.byID[*c.ParentID]; !ok {
			return nil, apperr.Validation("catégorie %d : parent %d introuvable", c.ID, *c.ParentID)
		}
		t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
	}

	// Chaque noeud doit remonter à une racine
	for id := range t.byID {
		if err := t.checkAcyclic(id); err != nil {
			return nil, err
		}
	}

	sortIDs(t.roots)
	for _, ids := range t.children {
		sortIDs(ids)
	}
	return t, nil
}

func (t *CategoryTree) checkAcyclic(id int64) error {
	seen := map[int64]bool{}
	cur := id
	for {
		if seen[cur] {
			return apperr.Validation("cycle détecté dans la hiérarchie de la catégorie %d", id)
		}
		seen[cur] = true
		parent := t.byID[cur].ParentID
		if parent == nil {
			return nil
		}
		cur = *parent
	}
}

func (t *CategoryTree) Roots() []models.Category {
	return t.lookup(t.roots)
}

func (t *CategoryTree) Children(id int64) []models.Category {
	return t.lookup(t.children[id])
}

func (t *CategoryTree) HasChildren(id int64) bool {
	return len(t.children[id]) > 0
}

// Path retourne la chaîne racine -> catégorie
func (t *CategoryTree) Path(id int64) ([]models.Category, error) {
	c, ok := t.byID[id]
	if !ok {
		return nil, apperr.NotFound("catégorie %d introuvable", id)
	}
	path := []models.Category{c}
	for c.ParentID != nil {
		c = t.byID[*c.ParentID]
		path = append([]models.Category{c}, path...)
	}
	return path, nil
}

// Nodes construit la forme imbriquée servie par l'API
func (t *CategoryTree) Nodes() []*models.CategoryNode {
	var build func(id int64) *models.CategoryNode
	build = func(id int64) *models.CategoryNode {
		node := &models.CategoryNode{Category: t.byID[id], Children: []*models.CategoryNode{}}
		for _, child := range t.children[id] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	nodes := make([]*models.CategoryNode, 0, len(t.roots))
	for _, id := range t.roots {
		nodes = append(nodes, build(id))
	}
	return nodes
}

func (t *CategoryTree) lookup(ids []int64) []models.Category {
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
