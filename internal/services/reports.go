package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"proteia_back_end/internal/analytics"
	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

// Durée de validité des liens de téléchargement
const ReportURLExpiry = 24 * time.Hour

// Report : rapport déposé dans MinIO
type Report struct {
	Object      string    `json:"object"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type Reports struct {
	client    *minio.Client
	bucket    string
	analytics *analytics.Service
	now       func() time.Time
}

func NewReports(client *minio.Client, bucket string, svc *analytics.Service) *Reports {
	return &Reports{client: client, bucket: bucket, analytics: svc, now: time.Now}
}

func (r *Reports) Enabled() bool {
	return r != nil && r.client != nil
}

// Export calcule les statistiques marques/catégories, dépose le CSV et
// retourne une URL signée
func (r *Reports) Export(ctx context.Context) (*Report, error) {
	if !r.Enabled() {
		return nil, apperr.Internal(nil, "stockage des rapports non configuré")
	}

	brands, err := r.analytics.BrandAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.analytics.CategoryAnalysis(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, brands, categories); err != nil {
		return nil, apperr.Internal(err, "génération du rapport")
	}

	generated := r.now().UTC()
	object := ReportObjectName(generated)
	_, err = r.client.PutObject(ctx, r.bucket, object, &buf, int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		zap.L().Error("❌ Upload rapport MinIO", zap.String("object", object), zap.Error(err))
		return nil, apperr.Internal(err, "dépôt du rapport impossible")
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", object))
	presigned, err := r.client.PresignedGetObject(ctx, r.bucket, object, ReportURLExpiry, reqParams)
	if err != nil {
		return nil, apperr.Internal(err, "signature du lien impossible")
	}

	zap.L().Info("📄 Rapport exporté", zap.String("object", object))
	return &Report{
		Object:      object,
		URL:         presigned.String(),
		GeneratedAt: generated,
		ExpiresAt:   generated.Add(ReportURLExpiry),
	}, nil
}

func ReportObjectName(at time.Time) string {
	return fmt.Sprintf("reports/market-report-%s.csv", at.UTC().Format("20060102-150405"))
}

// WriteReport écrit deux sections (marques puis catégories). Les valeurs
// absentes restent des cellules vides.
func WriteReport(w io.Writer, brands []models.BrandStats, categories []models.CategoryStats) error {
	cw := csv.NewWriter(w)

	rows := [][]string{{"section", "name", "productCount", "averagePrice", "averageRating", "averageProtein", "totalRevenue"}}
	for _, b := range brands {
		rows = append(rows, []string{
			"brand", b.Name, strconv.Itoa(b.ProductCount),
			formatOptional(b.AveragePrice), formatOptional(b.AverageRating),
			formatOptional(b.AverageProtein), formatFloat(b.TotalRevenue),
		})
	}
	for _, c := range categories {
		rows = append(rows, []string{
			"category", c.Name, strconv.Itoa(c.ProductCount),
			formatOptional(c.AveragePrice), "", "", formatFloat(c.TotalRevenue),
		})
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
