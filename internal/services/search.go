package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/catalog"
	"proteia_back_end/internal/models"
)

//
// --- RECHERCHE PRODUITS (Elasticsearch + repli sur le store) ---
//

// Search interroge Elasticsearch et retombe sur le filtre du store
// quand le client est absent, en erreur ou sans résultat.
type Search struct {
	client *elasticsearch.Client
	index  string
	store  catalog.Store
	size   int
}

// searchDocument : résumé produit enrichi du terme de recherche source
type searchDocument struct {
	models.ProductSummary
	SearchTerm string `json:"searchTerm,omitempty"`
}

func NewSearch(client *elasticsearch.Client, index string, store catalog.Store) *Search {
	if index == "" {
		index = "products"
	}
	return &Search{client: client, index: index, store: store, size: 50}
}

func (s *Search) Enabled() bool {
	return s != nil && s.client != nil
}

func toDocument(p *models.Product) searchDocument {
	doc := searchDocument{ProductSummary: p.Summary()}
	if p.SearchTerm != nil {
		doc.SearchTerm = *p.SearchTerm
	}
	return doc
}

// IndexProduct indexe un produit ; sans Elastic, ne fait rien
func (s *Search) IndexProduct(ctx context.Context, p *models.Product) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(toDocument(p))
	if err != nil {
		return fmt.Errorf("encodage produit %s: %w", p.ASIN, err)
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("erreur envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic a refusé %s: %s", p.ASIN, res.String())
	}
	zap.L().Debug("✅ Produit indexé", zap.String("asin", p.ASIN))
	return nil
}

// IndexAll réindexe tout le catalogue en une requête bulk
func (s *Search) IndexAll(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, errors.New("client Elasticsearch non initialisé")
	}
	products, err := s.store.ListProducts(ctx, catalog.Filter{})
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		meta := map[string]any{"index": map[string]any{"_index": s.index, "_id": strconv.FormatInt(products[i].ID, 10)}}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(toDocument(&products[i])); err != nil {
			return 0, err
		}
	}

	req := esapi.BulkRequest{Body: &buf, Refresh: "true"}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, fmt.Errorf("erreur bulk Elastic: %w", err)
	}
	defer res.Body.Close()

	var body struct {
		Errors bool `json:"errors"`
	}
	if res.IsError() {
		return 0, fmt.Errorf("bulk refusé: %s", res.String())
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("erreur décodage bulk: %w", err)
	}
	if body.Errors {
		return 0, errors.New("certains produits n'ont pas été indexés")
	}
	zap.L().Info("🔎 Catalogue indexé", zap.Int("products", len(products)), zap.String("index", s.index))
	return len(products), nil
}

// SearchProducts cherche par nom, marque, catégorie ou terme de recherche
func (s *Search) SearchProducts(ctx context.Context, term string) ([]models.ProductSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation("searchTerm requis")
	}

	if s.Enabled() {
		hits, err := s.searchElastic(ctx, term)
		switch {
		case err != nil:
			zap.L().Warn("⚠️ Recherche Elastic indisponible, repli sur le store", zap.Error(err))
		case len(hits) > 0:
			return hits, nil
		}
	}

	products, err := s.store.ListProducts(ctx, catalog.Filter{Search: term})
	if err != nil {
		return nil, apperr.Internal(err, "recherche produits")
	}
	out := make([]models.ProductSummary, 0, len(products))
	for i := range products {
		out = append(out, products[i].Summary())
	}
	return out, nil
}

func (s *Search) searchElastic(ctx context.Context, term string) ([]models.ProductSummary, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"size": s.size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  term,
				"fields": []string{"productName^2", "brand", "category", "searchTerm"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elastic: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source searchDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	results := make([]models.ProductSummary, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		results = append(results, hit.Source.ProductSummary)
	}
	return results, nil
}
