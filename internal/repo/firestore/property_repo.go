package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"property-listing/internal/domain"
)

type propertyDoc struct {
	UserID            string   `firestore:"userId"`
	Title             string   `firestore:"title,omitempty"`
	PropertyType      string   `firestore:"propertyType"`
	TransactionType   string   `firestore:"transactionType"`
	Address           string   `firestore:"address"`
	Neighborhood      string   `firestore:"neighborhood"`
	City              string   `firestore:"city"`
	Price             float64  `firestore:"price"`
	AdministrationFee *float64 `firestore:"administrationFee,omitempty"`
	Bedrooms          int      `firestore:"bedrooms"`
	Bathrooms         int      `firestore:"bathrooms"`
	ParkingSpaces     *int     `firestore:"parkingSpaces,omitempty"`
	Floor             *int     `firestore:"floor,omitempty"`
	TotalArea         float64  `firestore:"totalArea"`
	BuiltArea         *float64 `firestore:"builtArea,omitempty"`
	Description       string   `firestore:"description"`
	Amenities         []string `firestore:"amenities"`
	NearbyPlaces      []string `firestore:"nearbyPlaces"`
	ImageURLs         []string `firestore:"imageUrls"`
	IsActive          bool     `firestore:"isActive"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func toPropertyDoc(p *domain.Property) propertyDoc {
	return propertyDoc{
		UserID:            p.UserID,
		Title:             p.Title,
		PropertyType:      string(p.PropertyType),
		TransactionType:   string(p.TransactionType),
		Address:           p.Address,
		Neighborhood:      p.Neighborhood,
		City:              p.City,
		Price:             p.Price,
		AdministrationFee: p.AdministrationFee,
		Bedrooms:          p.Bedrooms,
		Bathrooms:         p.Bathrooms,
		ParkingSpaces:     p.ParkingSpaces,
		Floor:             p.Floor,
		TotalArea:         p.TotalArea,
		BuiltArea:         p.BuiltArea,
		Description:       p.Description,
		Amenities:         p.Amenities,
		NearbyPlaces:      p.NearbyPlaces,
		ImageURLs:         p.ImageURLs,
		IsActive:          p.Active,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (d propertyDoc) toDomain(id string) domain.Property {
	return domain.Property{
		ID:                id,
		UserID:            d.UserID,
		Title:             d.Title,
		PropertyType:      domain.PropertyType(d.PropertyType),
		TransactionType:   domain.TransactionKind(d.TransactionType),
		Address:           d.Address,
		Neighborhood:      d.Neighborhood,
		City:              d.City,
		Price:             d.Price,
		AdministrationFee: d.AdministrationFee,
		Bedrooms:          d.Bedrooms,
		Bathrooms:         d.Bathrooms,
		ParkingSpaces:     d.ParkingSpaces,
		Floor:             d.Floor,
		TotalArea:         d.TotalArea,
		BuiltArea:         d.BuiltArea,
		Description:       d.Description,
		Amenities:         d.Amenities,
		NearbyPlaces:      d.NearbyPlaces,
		ImageURLs:         d.ImageURLs,
		Active:            d.IsActive,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// Go 字段名 → 文档字段路径
var propertyPaths = map[string]string{
	"Title":             "title",
	"PropertyType":      "propertyType",
	"TransactionType":   "transactionType",
	"Address":           "address",
	"Neighborhood":      "neighborhood",
	"City":              "city",
	"Price":             "price",
	"AdministrationFee": "administrationFee",
	"Bedrooms":          "bedrooms",
	"Bathrooms":         "bathrooms",
	"ParkingSpaces":     "parkingSpaces",
	"Floor":             "floor",
	"TotalArea":         "totalArea",
	"BuiltArea":         "builtArea",
	"Description":       "description",
	"Amenities":         "amenities",
	"NearbyPlaces":      "nearbyPlaces",
	"ImageURLs":         "imageUrls",
	"Active":            "isActive",
	"UpdatedAt":         "updatedAt",
}

// patchUpdates 把 patch 转成字段级 merge
func patchUpdates(patch domain.PropertyPatch) []firestore.Update {
	var p domain.Property
	fields := patch.Apply(&p)
	doc := toPropertyDoc(&p)
	values := map[string]any{
		"title": doc.Title, "propertyType": doc.PropertyType, "transactionType": doc.TransactionType,
		"address": doc.Address, "neighborhood": doc.Neighborhood, "city": doc.City,
		"price": doc.Price, "administrationFee": doc.AdministrationFee,
		"bedrooms": doc.Bedrooms, "bathrooms": doc.Bathrooms,
		"parkingSpaces": doc.ParkingSpaces, "floor": doc.Floor,
		"totalArea": doc.TotalArea, "builtArea": doc.BuiltArea,
		"description": doc.Description, "amenities": doc.Amenities,
		"nearbyPlaces": doc.NearbyPlaces, "imageUrls": doc.ImageURLs,
		"isActive": doc.IsActive, "updatedAt": doc.UpdatedAt,
	}
	ups := make([]firestore.Update, 0, len(fields))
	for _, f := range fields {
		path := propertyPaths[f]
		ups = append(ups, firestore.Update{Path: path, Value: values[path]})
	}
	return ups
}

type PropertyRepo struct{ c *firestore.Client }

var _ domain.PropertyRepository = (*PropertyRepo)(nil)

func (r *PropertyRepo) col() *firestore.CollectionRef { return r.c.Collection(colProperties) }

func (r *PropertyRepo) Create(ctx context.Context, p *domain.Property) (string, error) {
	ref, _, err := r.col().Add(ctx, toPropertyDoc(p))
	if err != nil {
		return "", mapErr(err, "property")
	}
	p.ID = ref.ID
	return ref.ID, nil
}

func (r *PropertyRepo) Get(ctx context.Context, id string) (*domain.Property, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, "property")
	}
	var d propertyDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, mapErr(err, "decode property")
	}
	p := d.toDomain(snap.Ref.ID)
	return &p, nil
}

// List 排序在内存里做，避免 where + orderBy 需要复合索引
func (r *PropertyRepo) List(ctx context.Context, q domain.PropertyQuery) ([]domain.Property, error) {
	query := r.col().Query
	if q.OwnerID != "" {
		query = query.Where("userId", "==", q.OwnerID)
	}
	if q.ActiveOnly {
		query = query.Where("isActive", "==", true)
	}
	it := query.Documents(ctx)
	defer it.Stop()

	var out []domain.Property
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapErr(err, "list properties")
		}
		var d propertyDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, mapErr(err, "decode property")
		}
		out = append(out, d.toDomain(snap.Ref.ID))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update 文档不存在时 Firestore 返回 NotFound
func (r *PropertyRepo) Update(ctx context.Context, id string, patch domain.PropertyPatch) error {
	ups := patchUpdates(patch)
	if len(ups) == 0 {
		return nil
	}
	_, err := r.col().Doc(id).Update(ctx, ups)
	return mapErr(err, "property")
}

func (r *PropertyRepo) Delete(ctx context.Context, id string) error {
	_, err := r.col().Doc(id).Delete(ctx, firestore.Exists)
	return mapErr(err, "property")
}
