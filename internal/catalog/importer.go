package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"proteia_back_end/internal/models"
)

// ImportResult résume un import CSV
type ImportResult struct {
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Brands     int      `json:"brands"`
	Categories int      `json:"categories"`
	Errors     []string `json:"errors,omitempty"`
}

// Importer charge l'export CSV du marché dans un store
type Importer struct {
	Store ReadWriter
	// OnSaved est appelé après chaque produit sauvegardé (indexation Elastic)
	OnSaved func(ctx context.Context, p *models.Product)
}

// Import lit un CSV avec en-tête. Les lignes sans nom de produit sont ignorées.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("lecture en-tête CSV: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	if _, ok := index["productname"]; !ok {
		return nil, errors.New("colonne 'Product Name' absente du CSV")
	}

	result := &ImportResult{}
	brands := map[string]bool{}
	categories := map[string]bool{}

	existing, err := im.Store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		categories[strings.ToLower(c.Name)] = true
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}

		row := csvRow{record: record, index: index}
		p, err := row.product(line)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}
		if p == nil {
			result.Skipped++
			continue
		}

		if err := im.Store.SaveProduct(ctx, p); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}
		result.Imported++
		if im.OnSaved != nil {
			im.OnSaved(ctx, p)
		}

		if p.Brand != "" && !brands[strings.ToLower(p.Brand)] {
			brands[strings.ToLower(p.Brand)] = true
			if err := im.Store.SaveBrand(ctx, &models.Brand{Name: p.Brand}); err != nil {
				return result, err
			}
			result.Brands++
		}
		if p.Category != "" && !categories[strings.ToLower(p.Category)] {
			categories[strings.ToLower(p.Category)] = true
			if err := im.Store.SaveCategory(ctx, &models.Category{Name: p.Category}); err != nil {
				return result, err
			}
			result.Categories++
		}
	}

	return result, nil
}

type csvRow struct {
	record []string
	index  map[string]int
}

func (r csvRow) str(names ...string) string {
	for _, name := range names {
		if i, ok := r.index[name]; ok && i < len(r.record) {
			v := strings.TrimSpace(r.record[i])
			switch strings.ToUpper(v) {
			case "", "N/A", "NA", "-", "NULL":
				continue
			}
			return v
		}
	}
	return ""
}

func (r csvRow) strPtr(names ...string) *string {
	if v := r.str(names...); v != "" {
		return &v
	}
	return nil
}

func (r csvRow) float(names ...string) (*float64, error) {
	v := r.str(names...)
	if v == "" {
		return nil, nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(v)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("%s : nombre invalide %q", names[0], v)
	}
	return &f, nil
}

func (r csvRow) int(names ...string) (*int, error) {
	f, err := r.float(names...)
	if err != nil || f == nil {
		return nil, err
	}
	i := int(*f)
	return &i, nil
}

// product construit un produit ; nil sans erreur pour une ligne à ignorer
func (r csvRow) product(line int) (*models.Product, error) {
	name := r.str("productname")
	if name == "" {
		return nil, nil
	}

	p := &models.Product{
		ASIN:         r.str("asin"),
		ProductName:  name,
		Brand:        r.str("brand"),
		Category:     r.str("category"),
		SellerType:   r.strPtr("sellertype"),
		URL:          r.strPtr("url"),
		SearchTerm:   r.strPtr("searchterm", "terminodebusqueda"),
		BestSellerIn: r.strPtr("bestsellerin"),
		HasAPlus:     strings.EqualFold(r.str("aplus", "hasaplus"), "true"),
	}
	if p.ASIN == "" {
		p.ASIN = fmt.Sprintf("UNK-%d", line)
	}

	var errs []error
	price, err := r.float("price")
	switch {
	case err != nil:
		errs = append(errs, err)
	case price == nil:
		errs = append(errs, errors.New("prix manquant"))
	case *price < 0:
		errs = append(errs, fmt.Errorf("prix négatif: %v", *price))
	default:
		p.Price = *price
	}

	floats := []struct {
		dst   **float64
		names []string
	}{
		{&p.Rating, []string{"rating"}},
		{&p.EstRevenue, []string{"estrevenue"}},
		{&p.AvgPricePerMonth, []string{"avgpricepermo", "avgpricepermonth"}},
		{&p.NetMargin, []string{"netmargin"}},
		{&p.MinPrice, []string{"minprice"}},
		{&p.Net, []string{"net"}},
		{&p.FBAFees, []string{"fbafees"}},
		{&p.PageSalesShare, []string{"pagesalesshare"}},
		{&p.PageRevShare, []string{"pagerevshare"}},
		{&p.RevPerReview, []string{"revperreview"}},
		{&p.ProfitPotential, []string{"profitpotential"}},
		{&p.Weight, []string{"weight"}},
	}
	for _, f := range floats {
		v, err := r.float(f.names...)
		errs = append(errs, err)
		*f.dst = v
	}

	ints := []struct {
		dst   **int
		names []string
	}{
		{&p.ReviewCount, []string{"ofreviews", "reviewcount", "reviews"}},
		{&p.EstSales, []string{"estsales"}},
		{&p.LQS, []string{"lqs"}},
		{&p.ScoreForPL, []string{"scoreforpl"}},
		{&p.ScoreForReselling, []string{"scoreforreselling"}},
		{&p.NumSellers, []string{"ofsellers", "numsellers"}},
		{&p.Rank, []string{"rank"}},
		{&p.AvgBSRPerMonth, []string{"avgbsrpermo", "avgbsrpermonth"}},
		{&p.Inventory, []string{"inventory"}},
		{&p.Variants, []string{"variants"}},
		{&p.SearchCount, []string{"searchcount", "cantidaddebusquedas"}},
	}
	for _, f := range ints {
		v, err := r.int(f.names...)
		errs = append(errs, err)
		*f.dst = v
	}

	if v := r.str("availablefrom", "dateavailable"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			p.AvailableFrom = &t
		}
	}

	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		errs = append(errs, fmt.Errorf("rating hors de [0,5]: %v", *p.Rating))
	}

	n, err := r.nutrition()
	errs = append(errs, err)
	p.NutritionalInfo = n

	a, err := r.analysis()
	errs = append(errs, err)
	p.Analysis = a

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return p, nil
}

func (r csvRow) nutrition() (*models.NutritionalInfo, error) {
	n := &models.NutritionalInfo{}
	fields := []struct {
		dst   **float64
		names []string
	}{
		{&n.Energy, []string{"energy", "energykcal"}},
		{&n.Protein, []string{"protein", "proteing"}},
		{&n.TotalFat, []string{"totalfat"}},
		{&n.SaturatedFat, []string{"saturatedfat"}},
		{&n.TransFat, []string{"transfat"}},
		{&n.Carbohydrates, []string{"carbohydrates"}},
		{&n.Sugars, []string{"sugars"}},
		{&n.AddedSugars, []string{"addedsugars"}},
		{&n.DietaryFiber, []string{"dietaryfiber", "fiber"}},
		{&n.Sodium, []string{"sodium"}},
		{&n.Potassium, []string{"potassium"}},
		{&n.Calcium, []string{"calcium"}},
		{&n.Iron, []string{"iron"}},
		{&n.Phosphorus, []string{"phosphorus"}},
		{&n.Polyalcohols, []string{"polyalcohols"}},
	}

	found := false
	var errs []error
	for _, f := range fields {
		v, err := r.float(f.names...)
		errs = append(errs, err)
		if v != nil {
			found = true
		}
		*f.dst = v
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return n, nil
}

func (r csvRow) analysis() (*models.ProductAnalysis, error) {
	score, err := r.float("similarityscore")
	if err != nil {
		return nil, err
	}
	if score != nil && (*score < 0 || *score > 1) {
		return nil, fmt.Errorf("similarity score hors de [0,1]: %v", *score)
	}

	a := &models.ProductAnalysis{
		ValueProposition:    r.strPtr("valueproposition"),
		Ingredients:         r.strPtr("ingredients"),
		KeyLabels:           r.strPtr("keylabels"),
		PrimaryColors:       r.strPtr("primarycolors"),
		SecondaryColors:     r.strPtr("secondarycolors"),
		IntendedSegment:     r.strPtr("intendedsegment"),
		AdditionalNotes:     r.strPtr("additionalnotes"),
		SimilarityScore:     score,
		CompetitivePosition: r.strPtr("competitiveposition"),
		Barriers:            r.strPtr("barriers"),
		Playbook:            r.strPtr("playbook"),
	}
	if *a == (models.ProductAnalysis{}) {
		return nil, nil
	}
	return a, nil
}

// normalizeHeader : "Avg. Price per Mo" -> "avgpricepermo", "A+" -> "aplus"
func normalizeHeader(h string) string {
	replacer := strings.NewReplacer("+", "plus", "á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n")
	h = replacer.Replace(strings.ToLower(h))
	var b strings.Builder
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
